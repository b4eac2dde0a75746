package model

// AgentStatus is the presence status of a support agent.
type AgentStatus string

const (
	StatusOnline  AgentStatus = "online"
	StatusAway    AgentStatus = "away"
	StatusOffline AgentStatus = "offline"
)

// Agent is a servicing agent, human or bot.
type Agent struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Status   AgentStatus `json:"status"`
	Bot      bool        `json:"bot"`

	// MaxChats limits concurrent conversations. Present only under the
	// extended licensing tier; nil means unlimited.
	MaxChats *int `json:"max_chats,omitempty"`
}

// Online reports whether the agent can currently take chats.
func (a *Agent) Online() bool {
	return a.Status == StatusOnline
}

// Department groups agents with their own availability and tag policy.
// FallbackDepartmentID forms a directed graph that may contain cycles; the
// availability resolver bounds its walk accordingly.
type Department struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Enabled                 bool     `json:"enabled"`
	ShowOnRegistration      bool     `json:"show_on_registration"`
	FallbackDepartmentID    string   `json:"fallback_department_id,omitempty"`
	RequireTagBeforeClosing bool     `json:"require_tag_before_closing"`
	ChatClosingTags         []string `json:"chat_closing_tags,omitempty"`
}

package routing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/config"
	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
)

type fakeDepartments struct {
	departments map[string]*model.Department
	err         error
}

func (f *fakeDepartments) ByID(ctx context.Context, id string) (*model.Department, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.departments[id], nil
}

func (f *fakeDepartments) Count(ctx context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.departments), nil
}

type fakeAgents struct {
	agents map[string]*model.Agent
	online map[string]int // online count per department; "" is global
	bots   map[string]int
	err    error
}

func (f *fakeAgents) ByID(ctx context.Context, id string) (*model.Agent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.agents[id], nil
}

func (f *fakeAgents) OnlineCount(ctx context.Context, departmentID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.online[departmentID], nil
}

func (f *fakeAgents) BotCount(ctx context.Context, departmentID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.bots[departmentID], nil
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestIsServiceAvailablePolicyOverride(t *testing.T) {
	r := NewResolver(&fakeDepartments{}, &fakeAgents{}, testLogger())
	settings := config.Settings{AcceptWithNoOnlineAgents: true}

	ok, err := r.IsServiceAvailable(context.Background(), settings, Query{})
	if err != nil {
		t.Fatalf("IsServiceAvailable: %v", err)
	}
	if !ok {
		t.Error("expected availability with no-agent policy enabled")
	}

	// Skipping the policy falls through to the (empty) agent pool.
	ok, err = r.IsServiceAvailable(context.Background(), settings, Query{SkipNoAgentPolicy: true})
	if err != nil {
		t.Fatalf("IsServiceAvailable: %v", err)
	}
	if ok {
		t.Error("expected unavailable when policy is skipped and nobody is online")
	}
}

func TestIsServiceAvailableBotOverride(t *testing.T) {
	agents := &fakeAgents{bots: map[string]int{"sales": 1}}
	r := NewResolver(&fakeDepartments{}, agents, testLogger())
	settings := config.Settings{AssignNewConversationsToBot: true}

	ok, err := r.IsServiceAvailable(context.Background(), settings, Query{DepartmentID: "sales"})
	if err != nil {
		t.Fatalf("IsServiceAvailable: %v", err)
	}
	if !ok {
		t.Error("expected availability from department bot agent")
	}

	ok, err = r.IsServiceAvailable(context.Background(), settings, Query{DepartmentID: "support"})
	if err != nil {
		t.Fatalf("IsServiceAvailable: %v", err)
	}
	if ok {
		t.Error("expected unavailable for department without bots or agents")
	}
}

func TestCheckOnlineAgentsForcedAgent(t *testing.T) {
	agents := &fakeAgents{
		agents: map[string]*model.Agent{
			"a1": {ID: "a1", Status: model.StatusOnline},
			"a2": {ID: "a2", Status: model.StatusAway},
		},
		// The forced agent wins even when the department is staffed.
		online: map[string]int{"support": 3},
	}
	r := NewResolver(&fakeDepartments{}, agents, testLogger())

	tests := []struct {
		name    string
		agentID string
		want    bool
	}{
		{"online agent", "a1", true},
		{"away agent", "a2", false},
		{"unknown agent", "missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.CheckOnlineAgents(context.Background(), "support", tt.agentID, false)
			if err != nil {
				t.Fatalf("CheckOnlineAgents: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckOnlineAgents = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckOnlineAgentsGlobal(t *testing.T) {
	agents := &fakeAgents{online: map[string]int{"": 2}}
	r := NewResolver(&fakeDepartments{}, agents, testLogger())

	ok, err := r.CheckOnlineAgents(context.Background(), "", "", false)
	if err != nil {
		t.Fatalf("CheckOnlineAgents: %v", err)
	}
	if !ok {
		t.Error("expected system-wide availability")
	}
}

func TestCheckOnlineAgentsFallbackChain(t *testing.T) {
	depts := &fakeDepartments{departments: map[string]*model.Department{
		"d2": {ID: "d2", FallbackDepartmentID: "d3"},
		"d3": {ID: "d3"},
	}}
	agents := &fakeAgents{online: map[string]int{"d2": 0, "d3": 1}}
	r := NewResolver(depts, agents, testLogger())

	ok, err := r.CheckOnlineAgents(context.Background(), "d2", "", false)
	if err != nil {
		t.Fatalf("CheckOnlineAgents: %v", err)
	}
	if !ok {
		t.Error("expected availability through fallback department")
	}
}

func TestCheckOnlineAgentsSkipFallback(t *testing.T) {
	depts := &fakeDepartments{departments: map[string]*model.Department{
		"d2": {ID: "d2", FallbackDepartmentID: "d3"},
		"d3": {ID: "d3"},
	}}
	agents := &fakeAgents{online: map[string]int{"d3": 1}}
	r := NewResolver(depts, agents, testLogger())

	ok, err := r.CheckOnlineAgents(context.Background(), "d2", "", true)
	if err != nil {
		t.Fatalf("CheckOnlineAgents: %v", err)
	}
	if ok {
		t.Error("expected unavailable when fallback is skipped")
	}
}

func TestCheckOnlineAgentsNoFallbackConfigured(t *testing.T) {
	depts := &fakeDepartments{departments: map[string]*model.Department{
		"d1": {ID: "d1"},
	}}
	r := NewResolver(depts, &fakeAgents{}, testLogger())

	ok, err := r.CheckOnlineAgents(context.Background(), "d1", "", false)
	if err != nil {
		t.Fatalf("CheckOnlineAgents: %v", err)
	}
	if ok {
		t.Error("expected unavailable for empty department without fallback")
	}
}

func TestCheckOnlineAgentsFallbackCycle(t *testing.T) {
	depts := &fakeDepartments{departments: map[string]*model.Department{
		"a": {ID: "a", FallbackDepartmentID: "b"},
		"b": {ID: "b", FallbackDepartmentID: "a"},
	}}
	r := NewResolver(depts, &fakeAgents{}, testLogger())

	// Must terminate and fail closed.
	ok, err := r.CheckOnlineAgents(context.Background(), "a", "", false)
	if err != nil {
		t.Fatalf("CheckOnlineAgents: %v", err)
	}
	if ok {
		t.Error("expected unavailable for cyclic fallback chain")
	}
}

func TestCheckOnlineAgentsHopCeiling(t *testing.T) {
	// A chain longer than the ceiling with the only online agent at the
	// far end: the walk must stop early and report unavailable.
	depts := &fakeDepartments{departments: map[string]*model.Department{}}
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("d%d", i)
		d := &model.Department{ID: id}
		if i < 14 {
			d.FallbackDepartmentID = fmt.Sprintf("d%d", i+1)
		}
		depts.departments[id] = d
	}
	agents := &fakeAgents{online: map[string]int{"d14": 1}}
	r := NewResolver(depts, agents, testLogger())

	ok, err := r.CheckOnlineAgents(context.Background(), "d0", "", false)
	if err != nil {
		t.Fatalf("CheckOnlineAgents: %v", err)
	}
	if ok {
		t.Error("expected fail-closed past the hop ceiling")
	}
}

func TestCheckOnlineAgentsCollaboratorFailure(t *testing.T) {
	agents := &fakeAgents{err: errors.New("directory down")}
	r := NewResolver(&fakeDepartments{}, agents, testLogger())

	if _, err := r.CheckOnlineAgents(context.Background(), "", "", false); err == nil {
		t.Error("expected collaborator failure to propagate")
	}
}

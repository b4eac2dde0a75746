// Package routing decides whether an inbound conversation currently has a
// servicing entity available. It is read-only: nothing here mutates state.
package routing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/config"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
	"github.com/omnidesk-io/omnichannel-engine/pkg/metrics"
)

// fallbackHopCeiling bounds the department fallback walk. The effective
// limit is the smaller of this and the total department count, so a chain
// that revisits departments or outgrows the directory fails closed.
const fallbackHopCeiling = 10

// Query scopes an availability check.
type Query struct {
	// DepartmentID scopes the check to one department and its fallback
	// chain. Empty means installation-wide.
	DepartmentID string

	// AgentID forces the check onto a single agent's presence, ignoring
	// department scoping entirely.
	AgentID string

	// SkipNoAgentPolicy disables the operator "accept chats with no
	// agents" short-circuit.
	SkipNoAgentPolicy bool

	// SkipFallback stops the check at the named department without
	// walking its fallback chain.
	SkipFallback bool
}

// Resolver answers availability queries against the department directory.
type Resolver struct {
	departments store.DepartmentStore
	agents      store.AgentStore
	logger      *logger.Logger
}

// NewResolver creates an availability resolver.
func NewResolver(departments store.DepartmentStore, agents store.AgentStore, log *logger.Logger) *Resolver {
	return &Resolver{
		departments: departments,
		agents:      agents,
		logger:      log,
	}
}

// IsServiceAvailable reports whether a new conversation in the query's scope
// can be serviced right now. Collaborator read failures propagate; callers
// treat them as "unavailable" rather than crashing the routing path.
func (r *Resolver) IsServiceAvailable(ctx context.Context, settings config.Settings, q Query) (bool, error) {
	if settings.AcceptWithNoOnlineAgents && !q.SkipNoAgentPolicy {
		metrics.AvailabilityChecks.WithLabelValues("policy_override").Inc()
		return true, nil
	}

	if settings.AssignNewConversationsToBot {
		bots, err := r.agents.BotCount(ctx, q.DepartmentID)
		if err != nil {
			return false, fmt.Errorf("counting bot agents: %w", err)
		}
		if bots > 0 {
			metrics.AvailabilityChecks.WithLabelValues("bot").Inc()
			return true, nil
		}
	}

	ok, err := r.CheckOnlineAgents(ctx, q.DepartmentID, q.AgentID, q.SkipFallback)
	if err != nil {
		return false, err
	}
	if ok {
		metrics.AvailabilityChecks.WithLabelValues("online").Inc()
	} else {
		metrics.AvailabilityChecks.WithLabelValues("unavailable").Inc()
	}
	return ok, nil
}

// CheckOnlineAgents resolves human-agent presence. A forced agent wins over
// any department scoping; a department with no online agents is walked down
// its fallback chain unless skipFallback is set.
func (r *Resolver) CheckOnlineAgents(ctx context.Context, departmentID, agentID string, skipFallback bool) (bool, error) {
	if agentID != "" {
		agent, err := r.agents.ByID(ctx, agentID)
		if err != nil {
			return false, fmt.Errorf("looking up agent %s: %w", agentID, err)
		}
		if agent == nil {
			return false, nil
		}
		return agent.Online(), nil
	}

	if departmentID == "" {
		count, err := r.agents.OnlineCount(ctx, "")
		if err != nil {
			return false, fmt.Errorf("counting online agents: %w", err)
		}
		return count > 0, nil
	}

	return r.checkDepartmentChain(ctx, departmentID, skipFallback)
}

// checkDepartmentChain walks a department's fallback chain iteratively. The
// chain is a directed graph that may contain cycles, so the walk keeps a
// visited set and a hop limit and treats exhaustion as unavailable.
func (r *Resolver) checkDepartmentChain(ctx context.Context, departmentID string, skipFallback bool) (bool, error) {
	limit := fallbackHopCeiling
	if total, err := r.departments.Count(ctx); err != nil {
		return false, fmt.Errorf("counting departments: %w", err)
	} else if total < limit {
		limit = total
	}

	visited := make(map[string]struct{})
	id := departmentID
	for hop := 0; hop <= limit; hop++ {
		if _, seen := visited[id]; seen {
			r.logger.Debug("fallback chain cycle detected",
				zap.String("department_id", departmentID),
				zap.String("repeated_id", id),
			)
			return false, nil
		}
		visited[id] = struct{}{}

		count, err := r.agents.OnlineCount(ctx, id)
		if err != nil {
			return false, fmt.Errorf("counting online agents for department %s: %w", id, err)
		}
		if count > 0 {
			metrics.FallbackHops.Observe(float64(hop))
			return true, nil
		}
		if hop == 0 && skipFallback {
			return false, nil
		}

		dept, err := r.departments.ByID(ctx, id)
		if err != nil {
			return false, fmt.Errorf("looking up department %s: %w", id, err)
		}
		if dept == nil || dept.FallbackDepartmentID == "" {
			return false, nil
		}
		id = dept.FallbackDepartmentID
	}

	r.logger.Debug("fallback chain hop ceiling exceeded",
		zap.String("department_id", departmentID),
		zap.Int("limit", limit),
	)
	return false, nil
}

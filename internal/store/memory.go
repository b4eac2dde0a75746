package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/omnidesk-io/omnichannel-engine/internal/model"
)

// Memory aggregates in-memory implementations of every store contract, used
// for development and tests (would be replaced with a database in
// production). All lookups return copies so callers never alias internal
// state.
type Memory struct {
	Rooms         *MemoryRooms
	Inquiries     *MemoryInquiries
	Subscriptions *MemorySubscriptions
	Messages      *MemoryMessages
	Users         *MemoryUsers
	Visitors      *MemoryVisitors
	Departments   *MemoryDepartments
	Agents        *MemoryAgents
}

// NewMemory creates an empty in-memory store set.
func NewMemory() *Memory {
	return &Memory{
		Rooms:         &MemoryRooms{rooms: make(map[string]*model.Room)},
		Inquiries:     &MemoryInquiries{inquiries: make(map[string]*model.Inquiry)},
		Subscriptions: &MemorySubscriptions{subs: make(map[string][]*model.Subscription)},
		Messages:      &MemoryMessages{messages: make(map[string][]*model.Message)},
		Users:         &MemoryUsers{users: make(map[string]*model.User)},
		Visitors:      &MemoryVisitors{visitors: make(map[string]*model.Visitor)},
		Departments:   &MemoryDepartments{departments: make(map[string]*model.Department)},
		Agents:        &MemoryAgents{agents: make(map[string]*model.Agent), deptAgents: make(map[string][]string)},
	}
}

// MemoryRooms implements RoomStore.
type MemoryRooms struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room
}

func (s *MemoryRooms) ByID(ctx context.Context, id string) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, nil
	}
	cp := *room
	return &cp, nil
}

func (s *MemoryRooms) Save(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *MemoryRooms) CloseIfOpen(ctx context.Context, id string, info model.CloseInfo) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok || !room.Open {
		return false, nil
	}

	room.Open = false
	infoCp := info
	room.CloseInfo = &infoCp
	room.Tags = append([]string(nil), info.Tags...)
	return true, nil
}

// MemoryInquiries implements InquiryStore.
type MemoryInquiries struct {
	mu        sync.RWMutex
	inquiries map[string]*model.Inquiry // keyed by room ID
}

func (s *MemoryInquiries) Add(ctx context.Context, inq *model.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *inq
	s.inquiries[inq.RoomID] = &cp
	return nil
}

func (s *MemoryInquiries) ByRoomID(ctx context.Context, roomID string) (*model.Inquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inq, ok := s.inquiries[roomID]
	if !ok {
		return nil, nil
	}
	cp := *inq
	return &cp, nil
}

func (s *MemoryInquiries) RemoveByRoomID(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inquiries, roomID)
	return nil
}

// MemorySubscriptions implements SubscriptionStore.
type MemorySubscriptions struct {
	mu   sync.RWMutex
	subs map[string][]*model.Subscription
}

func (s *MemorySubscriptions) Add(ctx context.Context, sub *model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sub
	s.subs[sub.RoomID] = append(s.subs[sub.RoomID], &cp)
	return nil
}

func (s *MemorySubscriptions) CountByRoomID(ctx context.Context, roomID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.subs[roomID]), nil
}

func (s *MemorySubscriptions) RemoveByRoomID(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subs, roomID)
	return nil
}

// MemoryMessages implements MessageStore.
type MemoryMessages struct {
	mu       sync.RWMutex
	messages map[string][]*model.Message
}

func (s *MemoryMessages) Insert(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *msg
	s.messages[msg.RoomID] = append(s.messages[msg.RoomID], &cp)
	return nil
}

func (s *MemoryMessages) ByRoomBefore(ctx context.Context, roomID string, before time.Time, exclude []model.MessageType) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := make(map[model.MessageType]struct{}, len(exclude))
	for _, t := range exclude {
		excluded[t] = struct{}{}
	}

	var out []model.Message
	for _, msg := range s.messages[roomID] {
		if !msg.Timestamp.Before(before) {
			continue
		}
		if _, skip := excluded[msg.Type]; skip {
			continue
		}
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryMessages) ByRoom(ctx context.Context, roomID string, limit int) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[roomID]
	out := make([]model.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryMessages) FirstOfType(ctx context.Context, roomID string, t model.MessageType) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var earliest *model.Message
	for _, msg := range s.messages[roomID] {
		if msg.Type != t {
			continue
		}
		if earliest == nil || msg.Timestamp.Before(earliest.Timestamp) {
			earliest = msg
		}
	}
	if earliest == nil {
		return nil, nil
	}
	cp := *earliest
	return &cp, nil
}

// MemoryUsers implements UserStore.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func (s *MemoryUsers) Save(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryUsers) ByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUsers) ByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// MemoryVisitors implements VisitorStore.
type MemoryVisitors struct {
	mu       sync.RWMutex
	visitors map[string]*model.Visitor
}

func (s *MemoryVisitors) Save(ctx context.Context, v *model.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *v
	s.visitors[v.ID] = &cp
	return nil
}

func (s *MemoryVisitors) ByID(ctx context.Context, id string) (*model.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.visitors[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryVisitors) ByToken(ctx context.Context, token string) (*model.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.visitors {
		if v.Token == token {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

// MemoryDepartments implements DepartmentStore.
type MemoryDepartments struct {
	mu          sync.RWMutex
	departments map[string]*model.Department
}

func (s *MemoryDepartments) Save(ctx context.Context, d *model.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	s.departments[d.ID] = &cp
	return nil
}

func (s *MemoryDepartments) ByID(ctx context.Context, id string) (*model.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.departments[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryDepartments) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.departments), nil
}

// MemoryAgents implements AgentStore.
type MemoryAgents struct {
	mu         sync.RWMutex
	agents     map[string]*model.Agent
	deptAgents map[string][]string // department ID -> agent IDs
}

// Save stores an agent, optionally assigned to departments.
func (s *MemoryAgents) Save(ctx context.Context, a *model.Agent, departmentIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.agents[a.ID] = &cp
	for _, deptID := range departmentIDs {
		s.deptAgents[deptID] = append(s.deptAgents[deptID], a.ID)
	}
	return nil
}

func (s *MemoryAgents) ByID(ctx context.Context, id string) (*model.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryAgents) OnlineCount(ctx context.Context, departmentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.scoped(departmentID) {
		if a.Online() && !a.Bot {
			count++
		}
	}
	return count, nil
}

func (s *MemoryAgents) BotCount(ctx context.Context, departmentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.scoped(departmentID) {
		if a.Bot {
			count++
		}
	}
	return count, nil
}

// scoped returns agents in a department, or all agents when none is given.
// Caller holds the lock.
func (s *MemoryAgents) scoped(departmentID string) []*model.Agent {
	if departmentID == "" {
		out := make([]*model.Agent, 0, len(s.agents))
		for _, a := range s.agents {
			out = append(out, a)
		}
		return out
	}

	var out []*model.Agent
	for _, id := range s.deptAgents[departmentID] {
		if a, ok := s.agents[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/omnidesk-io/omnichannel-engine/internal/model"
)

func TestMemoryRoomsAbsentLookup(t *testing.T) {
	mem := NewMemory()

	room, err := mem.Rooms.ByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if room != nil {
		t.Errorf("room = %+v, want nil for absent ID", room)
	}
}

func TestMemoryRoomsCopiesOnRead(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Rooms.Save(ctx, &model.Room{ID: "r1", Open: true, Tags: []string{"vip"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, _ := mem.Rooms.ByID(ctx, "r1")
	first.Open = false

	second, _ := mem.Rooms.ByID(ctx, "r1")
	if !second.Open {
		t.Error("mutating a returned room leaked into the store")
	}
}

func TestMemoryRoomsCloseIfOpen(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Rooms.Save(ctx, &model.Room{ID: "r1", Open: true, Tags: []string{"old"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info := model.CloseInfo{
		ClosedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Closer:   model.CloserUser,
		Tags:     []string{"resolved"},
	}
	applied, err := mem.Rooms.CloseIfOpen(ctx, "r1", info)
	if err != nil {
		t.Fatalf("CloseIfOpen: %v", err)
	}
	if !applied {
		t.Fatal("first close not applied")
	}

	room, _ := mem.Rooms.ByID(ctx, "r1")
	if room.Open {
		t.Error("room still open")
	}
	if room.CloseInfo == nil || room.CloseInfo.Closer != model.CloserUser {
		t.Errorf("close info = %+v", room.CloseInfo)
	}
	if len(room.Tags) != 1 || room.Tags[0] != "resolved" {
		t.Errorf("tags = %v, want close-time tags", room.Tags)
	}

	// Second attempt loses the race.
	applied, err = mem.Rooms.CloseIfOpen(ctx, "r1", info)
	if err != nil {
		t.Fatalf("CloseIfOpen: %v", err)
	}
	if applied {
		t.Error("second close applied to an already-closed room")
	}

	applied, err = mem.Rooms.CloseIfOpen(ctx, "missing", info)
	if err != nil || applied {
		t.Errorf("close of missing room: applied=%v err=%v", applied, err)
	}
}

func TestMemoryInquiriesLifecycle(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Inquiries.Add(ctx, &model.Inquiry{ID: "i1", RoomID: "r1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	inq, err := mem.Inquiries.ByRoomID(ctx, "r1")
	if err != nil || inq == nil || inq.ID != "i1" {
		t.Fatalf("ByRoomID = %+v, err %v", inq, err)
	}

	if err := mem.Inquiries.RemoveByRoomID(ctx, "r1"); err != nil {
		t.Fatalf("RemoveByRoomID: %v", err)
	}
	inq, _ = mem.Inquiries.ByRoomID(ctx, "r1")
	if inq != nil {
		t.Errorf("inquiry survived removal: %+v", inq)
	}
}

func TestMemorySubscriptionsLifecycle(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2"} {
		if err := mem.Subscriptions.Add(ctx, &model.Subscription{ID: "s-" + userID, RoomID: "r1", UserID: userID}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	count, err := mem.Subscriptions.CountByRoomID(ctx, "r1")
	if err != nil || count != 2 {
		t.Fatalf("count = %d, err %v", count, err)
	}

	if err := mem.Subscriptions.RemoveByRoomID(ctx, "r1"); err != nil {
		t.Fatalf("RemoveByRoomID: %v", err)
	}
	count, _ = mem.Subscriptions.CountByRoomID(ctx, "r1")
	if count != 0 {
		t.Errorf("count after removal = %d", count)
	}
}

func TestMemoryMessagesQueries(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed := []*model.Message{
		{ID: "m2", RoomID: "r1", Body: "second", Timestamp: base.Add(2 * time.Minute)},
		{ID: "m1", RoomID: "r1", Body: "first", Timestamp: base.Add(1 * time.Minute)},
		{ID: "m3", RoomID: "r1", Type: model.MessageTypeCommand, Timestamp: base.Add(3 * time.Minute)},
		{ID: "m4", RoomID: "r1", Type: model.MessageTypeClose, Timestamp: base.Add(4 * time.Minute)},
		{ID: "m5", RoomID: "r1", Body: "late", Timestamp: base.Add(10 * time.Minute)},
	}
	for _, m := range seed {
		if err := mem.Messages.Insert(ctx, m); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := mem.Messages.ByRoomBefore(ctx, "r1", base.Add(4*time.Minute), model.TranscriptIgnoredTypes)
	if err != nil {
		t.Fatalf("ByRoomBefore: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
		t.Errorf("ByRoomBefore = %+v, want m1,m2 ascending", got)
	}

	all, err := mem.Messages.ByRoom(ctx, "r1", 0)
	if err != nil || len(all) != 5 {
		t.Fatalf("ByRoom = %d messages, err %v", len(all), err)
	}
	limited, _ := mem.Messages.ByRoom(ctx, "r1", 2)
	if len(limited) != 2 || limited[0].ID != "m4" || limited[1].ID != "m5" {
		t.Errorf("ByRoom limit = %+v, want the two most recent", limited)
	}

	closeMsg, err := mem.Messages.FirstOfType(ctx, "r1", model.MessageTypeClose)
	if err != nil || closeMsg == nil || closeMsg.ID != "m4" {
		t.Fatalf("FirstOfType = %+v, err %v", closeMsg, err)
	}
	none, _ := mem.Messages.FirstOfType(ctx, "r1", model.MessageTypeVideoCall)
	if none != nil {
		t.Errorf("FirstOfType for absent type = %+v", none)
	}
}

func TestMemoryUsersByUsername(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Users.Save(ctx, &model.User{ID: "u1", Username: "omni.bot", Name: "Omni Bot"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	u, err := mem.Users.ByUsername(ctx, "omni.bot")
	if err != nil || u == nil || u.ID != "u1" {
		t.Fatalf("ByUsername = %+v, err %v", u, err)
	}
	u, _ = mem.Users.ByUsername(ctx, "ghost")
	if u != nil {
		t.Errorf("ByUsername for absent account = %+v", u)
	}
}

func TestMemoryVisitorsByToken(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Visitors.Save(ctx, &model.Visitor{ID: "v1", Token: "tok-1", Name: "Ada"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	v, err := mem.Visitors.ByToken(ctx, "tok-1")
	if err != nil || v == nil || v.ID != "v1" {
		t.Fatalf("ByToken = %+v, err %v", v, err)
	}
	v, _ = mem.Visitors.ByToken(ctx, "tok-x")
	if v != nil {
		t.Errorf("ByToken for absent token = %+v", v)
	}
}

func TestMemoryAgentsScoping(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	agents := []struct {
		agent *model.Agent
		depts []string
	}{
		{&model.Agent{ID: "a1", Status: model.StatusOnline}, []string{"support"}},
		{&model.Agent{ID: "a2", Status: model.StatusAway}, []string{"support"}},
		{&model.Agent{ID: "a3", Status: model.StatusOnline}, []string{"sales"}},
		{&model.Agent{ID: "a4", Status: model.StatusOnline, Bot: true}, nil},
	}
	for _, a := range agents {
		if err := mem.Agents.Save(ctx, a.agent, a.depts...); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	global, err := mem.Agents.OnlineCount(ctx, "")
	if err != nil || global != 2 {
		t.Fatalf("global online = %d, err %v (bots and away agents must not count)", global, err)
	}
	support, _ := mem.Agents.OnlineCount(ctx, "support")
	if support != 1 {
		t.Errorf("support online = %d, want 1", support)
	}
	empty, _ := mem.Agents.OnlineCount(ctx, "billing")
	if empty != 0 {
		t.Errorf("billing online = %d, want 0", empty)
	}

	bots, _ := mem.Agents.BotCount(ctx, "")
	if bots != 1 {
		t.Errorf("bot count = %d, want 1", bots)
	}
}

func TestMemoryDepartmentsCount(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	count, err := mem.Departments.Count(ctx)
	if err != nil || count != 0 {
		t.Fatalf("empty count = %d, err %v", count, err)
	}

	for _, id := range []string{"support", "sales"} {
		if err := mem.Departments.Save(ctx, &model.Department{ID: id}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	count, _ = mem.Departments.Count(ctx)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

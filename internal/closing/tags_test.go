package closing

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
)

func seedDepartment(t *testing.T, departments *store.MemoryDepartments, d *model.Department) {
	t.Helper()
	if err := departments.Save(context.Background(), d); err != nil {
		t.Fatalf("seeding department: %v", err)
	}
}

func sortedTags(tags []string) []string {
	out := append([]string(nil), tags...)
	sort.Strings(out)
	return out
}

func equalTags(a, b []string) bool {
	a, b = sortedTags(a), sortedTags(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveTagsNoDepartment(t *testing.T) {
	r := NewTagResolver(store.NewMemory().Departments)
	room := &model.Room{ID: "r1", Tags: []string{"billing"}}

	opts, err := r.Resolve(context.Background(), room, model.CloseOptions{Tags: []string{"refund", "billing"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !equalTags(opts.Tags, []string{"billing", "refund"}) {
		t.Errorf("tags = %v", opts.Tags)
	}
}

func TestResolveTagsNoDepartmentNoTags(t *testing.T) {
	r := NewTagResolver(store.NewMemory().Departments)

	opts, err := r.Resolve(context.Background(), &model.Room{ID: "r1"}, model.CloseOptions{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(opts.Tags) != 0 {
		t.Errorf("tags = %v, want none", opts.Tags)
	}
}

func TestResolveTagsUnknownDepartment(t *testing.T) {
	r := NewTagResolver(store.NewMemory().Departments)
	room := &model.Room{ID: "r1", DepartmentID: "ghost", Tags: []string{"vip"}}

	opts, err := r.Resolve(context.Background(), room, model.CloseOptions{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !equalTags(opts.Tags, []string{"vip"}) {
		t.Errorf("tags = %v", opts.Tags)
	}
}

func TestResolveTagsMergesDepartmentTags(t *testing.T) {
	mem := store.NewMemory()
	seedDepartment(t, mem.Departments, &model.Department{
		ID:              "support",
		ChatClosingTags: []string{"resolved", "support"},
	})
	r := NewTagResolver(mem.Departments)
	room := &model.Room{ID: "r1", DepartmentID: "support", Tags: []string{"support"}}

	opts, err := r.Resolve(context.Background(), room, model.CloseOptions{Tags: []string{"urgent"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !equalTags(opts.Tags, []string{"resolved", "support", "urgent"}) {
		t.Errorf("tags = %v", opts.Tags)
	}
}

func TestResolveTagsPolicyViolations(t *testing.T) {
	tests := []struct {
		name         string
		dept         *model.Department
		roomTags     []string
		requestTags  []string
		clientAction bool
		wantErr      bool
	}{
		{
			name: "client action with no tags anywhere",
			dept: &model.Department{
				ID:                      "d1",
				RequireTagBeforeClosing: true,
			},
			clientAction: true,
			wantErr:      true,
		},
		{
			name: "no mandatory tags configured",
			dept: &model.Department{
				ID:                      "d1",
				RequireTagBeforeClosing: true,
			},
			roomTags: []string{"billing"},
			wantErr:  true,
		},
		{
			name: "client action satisfied by request tags",
			dept: &model.Department{
				ID:                      "d1",
				RequireTagBeforeClosing: true,
				ChatClosingTags:         []string{"closed-by-policy"},
			},
			requestTags:  []string{"billing"},
			clientAction: true,
			wantErr:      false,
		},
		{
			name: "automated close with mandatory tags",
			dept: &model.Department{
				ID:                      "d1",
				RequireTagBeforeClosing: true,
				ChatClosingTags:         []string{"closed-by-policy"},
			},
			clientAction: false,
			wantErr:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			seedDepartment(t, mem.Departments, tt.dept)
			r := NewTagResolver(mem.Departments)
			room := &model.Room{ID: "r1", DepartmentID: tt.dept.ID, Tags: tt.roomTags}

			opts, err := r.Resolve(context.Background(), room, model.CloseOptions{
				ClientAction: tt.clientAction,
				Tags:         tt.requestTags,
			})
			if tt.wantErr {
				if !errors.Is(err, ErrTagsRequired) {
					t.Fatalf("err = %v, want ErrTagsRequired", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			for _, mandatory := range tt.dept.ChatClosingTags {
				if !contains(opts.Tags, mandatory) {
					t.Errorf("tags %v missing mandatory %q", opts.Tags, mandatory)
				}
			}
		})
	}
}

func contains(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestDedupePreservesOrder(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("dedupe = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupe[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

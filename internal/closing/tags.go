// Package closing implements the room-closure core: the tag policy gate and
// the coordinator that transitions a room from open to closed.
package closing

import (
	"context"
	"errors"
	"fmt"

	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
)

// ErrTagsRequired rejects a close attempt that violates the department's
// require-tag-before-closing policy. Fatal to the attempt; the room stays
// open and untouched.
var ErrTagsRequired = errors.New("tags must be assigned before closing the chat")

// TagResolver computes the tag set to record on close and enforces the
// department tag policy. It never persists anything.
type TagResolver struct {
	departments store.DepartmentStore
}

// NewTagResolver creates a tag resolver backed by the department directory.
func NewTagResolver(departments store.DepartmentStore) *TagResolver {
	return &TagResolver{departments: departments}
}

// Resolve merges the request's tags with the room's and the department's
// mandatory closing tags, then applies the policy gate. On success the
// returned options carry the merged tag set.
func (r *TagResolver) Resolve(ctx context.Context, room *model.Room, opts model.CloseOptions) (model.CloseOptions, error) {
	roomTags := dedupe(append(append([]string(nil), opts.Tags...), room.Tags...))

	if room.DepartmentID == "" {
		if len(roomTags) > 0 {
			opts.Tags = roomTags
		}
		return opts, nil
	}

	dept, err := r.departments.ByID(ctx, room.DepartmentID)
	if err != nil {
		return opts, fmt.Errorf("loading department %s: %w", room.DepartmentID, err)
	}
	if dept == nil {
		if len(roomTags) > 0 {
			opts.Tags = roomTags
		}
		return opts, nil
	}

	extraTags := dedupe(append(roomTags, dept.ChatClosingTags...))

	if !dept.RequireTagBeforeClosing {
		opts.Tags = extraTags
		return opts, nil
	}

	// A client-initiated close needs the room tagged already; the
	// department itself needs at least one mandatory tag configured.
	if opts.ClientAction && len(roomTags) == 0 {
		return opts, ErrTagsRequired
	}
	if len(dept.ChatClosingTags) == 0 {
		return opts, ErrTagsRequired
	}

	opts.Tags = extraTags
	return opts, nil
}

// dedupe removes duplicates preserving first occurrence order.
func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Package groups provides an in-process group directory implementing the
// engine's GroupResolver interface: which roles exist per group and which
// role each member holds.
//
// In a full deployment this data is owned by an external identity system
// and mirrored here by a synchronization job; the registry exposes plain
// mutators for that job (and for tests) to write through.
package groups

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mlohr/groupdrive/pkg/directory"
)

type groupData struct {
	roles   map[string]struct{}
	members map[string]string // actor → role
}

// Registry is a thread-safe in-memory group directory.
type Registry struct {
	mu     sync.RWMutex
	groups map[directory.GroupID]*groupData
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[directory.GroupID]*groupData)}
}

// AddGroup registers a group with its known roles. Adding an existing
// group extends its role set. Role names are lower-cased.
func (r *Registry) AddGroup(group directory.GroupID, roles ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.groups[group]
	if !ok {
		data = &groupData{
			roles:   make(map[string]struct{}),
			members: make(map[string]string),
		}
		r.groups[group] = data
	}
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			data.roles[role] = struct{}{}
		}
	}
}

// RemoveGroup drops a group and all its memberships.
func (r *Registry) RemoveGroup(group directory.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, group)
}

// SetMember assigns an actor's role within a group. The role is added to
// the group's known roles if absent. An empty role removes the
// membership.
func (r *Registry) SetMember(group directory.GroupID, actor, role string) {
	role = strings.ToLower(strings.TrimSpace(role))
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.groups[group]
	if !ok {
		if role == "" {
			return
		}
		data = &groupData{
			roles:   make(map[string]struct{}),
			members: make(map[string]string),
		}
		r.groups[group] = data
	}
	if role == "" {
		delete(data.members, actor)
		return
	}
	data.roles[role] = struct{}{}
	data.members[actor] = role
}

// RolesOf implements directory.GroupResolver. An unknown group yields an
// empty slice.
func (r *Registry) RolesOf(_ context.Context, group directory.GroupID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.groups[group]
	if !ok {
		return nil, nil
	}
	roles := make([]string, 0, len(data.roles))
	for role := range data.roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles, nil
}

// RoleOf implements directory.GroupResolver. Non-members get the empty
// role.
func (r *Registry) RoleOf(_ context.Context, actor string, group directory.GroupID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.groups[group]
	if !ok {
		return "", nil
	}
	return data.members[actor], nil
}

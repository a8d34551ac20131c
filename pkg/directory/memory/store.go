// Package memory provides an in-memory implementation of the directory
// Store, suitable for tests and ephemeral deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mlohr/groupdrive/pkg/directory"
)

// state is the complete store content. Transactions operate on a deep
// clone and swap it in on commit, so a failed Update leaves the published
// state untouched.
type state struct {
	// dirs maps directory ids to their canonical rows.
	dirs map[directory.DirectoryID]*directory.Directory

	// sets maps permission-set ids to their canonical rows.
	sets map[directory.PermissionSetID]*directory.PermissionSet

	// roots maps each group to its root directory. This is the unique
	// constraint that serializes concurrent root bootstrap.
	roots map[directory.GroupID]directory.DirectoryID
}

func newState() *state {
	return &state{
		dirs:  make(map[directory.DirectoryID]*directory.Directory),
		sets:  make(map[directory.PermissionSetID]*directory.PermissionSet),
		roots: make(map[directory.GroupID]directory.DirectoryID),
	}
}

func (s *state) clone() *state {
	cloned := &state{
		dirs:  make(map[directory.DirectoryID]*directory.Directory, len(s.dirs)),
		sets:  make(map[directory.PermissionSetID]*directory.PermissionSet, len(s.sets)),
		roots: make(map[directory.GroupID]directory.DirectoryID, len(s.roots)),
	}
	for id, dir := range s.dirs {
		cloned.dirs[id] = cloneDirectory(dir)
	}
	for id, set := range s.sets {
		cloned.sets[id] = cloneSet(set)
	}
	for group, id := range s.roots {
		cloned.roots[group] = id
	}
	return cloned
}

func cloneDirectory(dir *directory.Directory) *directory.Directory {
	copied := *dir
	if dir.ParentID != nil {
		parent := *dir.ParentID
		copied.ParentID = &parent
	}
	return &copied
}

func cloneSet(set *directory.PermissionSet) *directory.PermissionSet {
	return &directory.PermissionSet{
		ID:      set.ID,
		Entries: set.CloneEntries(),
	}
}

// Store implements directory.Store with in-memory maps.
//
// Thread Safety:
// All access goes through a single read-write mutex. Update transactions
// additionally work on a private clone of the state, which keeps rollback
// trivial: dropping the clone restores the published state.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// View implements directory.Store.
func (s *Store) View(ctx context.Context, fn func(tx directory.ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&transaction{state: s.state})
}

// Update implements directory.Store. The callback runs against a clone of
// the current state; the clone replaces the published state only if the
// callback succeeds.
func (s *Store) Update(ctx context.Context, fn func(tx directory.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&transaction{state: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// Close implements directory.Store. Nothing to release.
func (s *Store) Close() error {
	return nil
}

// transaction implements both directory.ReadTx and directory.Tx over one
// state snapshot. Reads return copies so callers can never alias the
// store's canonical rows.
type transaction struct {
	state *state
}

func (t *transaction) GetDirectory(id directory.DirectoryID) (*directory.Directory, error) {
	dir, ok := t.state.dirs[id]
	if !ok {
		return nil, &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "directory not found",
			Path:    string(id),
		}
	}
	return cloneDirectory(dir), nil
}

func (t *transaction) ChildrenOf(parent directory.DirectoryID) ([]*directory.Directory, error) {
	var children []*directory.Directory
	for _, dir := range t.state.dirs {
		if dir.ParentID != nil && *dir.ParentID == parent {
			children = append(children, cloneDirectory(dir))
		}
	}
	return children, nil
}

func (t *transaction) RootOf(group directory.GroupID) (*directory.Directory, error) {
	id, ok := t.state.roots[group]
	if !ok {
		return nil, &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "group has no root directory",
			Path:    string(group),
		}
	}
	return t.GetDirectory(id)
}

func (t *transaction) CountInGroup(group directory.GroupID) (int, error) {
	count := 0
	for _, dir := range t.state.dirs {
		if dir.GroupOwner == group {
			count++
		}
	}
	return count, nil
}

func (t *transaction) GetPermissionSet(id directory.PermissionSetID) (*directory.PermissionSet, error) {
	set, ok := t.state.sets[id]
	if !ok {
		return nil, &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "permission set not found",
			Path:    string(id),
		}
	}
	return cloneSet(set), nil
}

func (t *transaction) CreateDirectory(dir *directory.Directory) (*directory.Directory, error) {
	if err := validateNewDirectory(t, dir); err != nil {
		return nil, err
	}

	created := cloneDirectory(dir)
	created.ID = directory.DirectoryID(uuid.NewString())
	created.CreatedAt = time.Now()

	t.state.dirs[created.ID] = created
	if created.ParentID == nil {
		t.state.roots[created.GroupOwner] = created.ID
	}
	return cloneDirectory(created), nil
}

func validateNewDirectory(t *transaction, dir *directory.Directory) error {
	if dir.GroupOwner == "" {
		return &directory.StoreError{
			Code:    directory.ErrInvalidArgument,
			Message: "directory has no group owner",
		}
	}
	if dir.PermissionSetID == "" {
		return &directory.StoreError{
			Code:    directory.ErrInvalidArgument,
			Message: "directory has no permission set",
		}
	}
	if _, ok := t.state.sets[dir.PermissionSetID]; !ok {
		return &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "permission set not found",
			Path:    string(dir.PermissionSetID),
		}
	}

	if dir.ParentID == nil {
		if _, exists := t.state.roots[dir.GroupOwner]; exists {
			return &directory.StoreError{
				Code:    directory.ErrAlreadyExists,
				Message: "group already has a root directory",
				Path:    string(dir.GroupOwner),
			}
		}
		return nil
	}

	if dir.Name == "" {
		return &directory.StoreError{
			Code:    directory.ErrInvalidName,
			Message: "non-root directory must have a name",
		}
	}
	parent, ok := t.state.dirs[*dir.ParentID]
	if !ok {
		return &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "parent directory not found",
			Path:    string(*dir.ParentID),
		}
	}
	if parent.GroupOwner != dir.GroupOwner {
		return &directory.StoreError{
			Code:    directory.ErrInvalidArgument,
			Message: "directory group differs from parent group",
		}
	}
	return nil
}

func (t *transaction) SaveDirectory(dir *directory.Directory) error {
	if _, ok := t.state.dirs[dir.ID]; !ok {
		return &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "directory not found",
			Path:    string(dir.ID),
		}
	}
	t.state.dirs[dir.ID] = cloneDirectory(dir)
	return nil
}

func (t *transaction) DeleteDirectory(id directory.DirectoryID) error {
	dir, ok := t.state.dirs[id]
	if !ok {
		return &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "directory not found",
			Path:    string(id),
		}
	}
	for _, other := range t.state.dirs {
		if other.ParentID != nil && *other.ParentID == id {
			return &directory.StoreError{
				Code:    directory.ErrNotEmpty,
				Message: "directory still has subdirectories",
				Path:    string(id),
			}
		}
	}
	delete(t.state.dirs, id)
	if dir.ParentID == nil {
		delete(t.state.roots, dir.GroupOwner)
	}
	return nil
}

func (t *transaction) CreatePermissionSet(entries []directory.PermissionEntry) (*directory.PermissionSet, error) {
	normalized, err := directory.NormalizeEntries(entries)
	if err != nil {
		return nil, err
	}
	set := &directory.PermissionSet{
		ID:      directory.PermissionSetID(uuid.NewString()),
		Entries: normalized,
	}
	t.state.sets[set.ID] = set
	return cloneSet(set), nil
}

func (t *transaction) ReplacePermissionSet(id directory.PermissionSetID, entries []directory.PermissionEntry) (*directory.PermissionSet, error) {
	if _, ok := t.state.sets[id]; !ok {
		return nil, &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "permission set not found",
			Path:    string(id),
		}
	}
	normalized, err := directory.NormalizeEntries(entries)
	if err != nil {
		return nil, err
	}
	set := &directory.PermissionSet{ID: id, Entries: normalized}
	t.state.sets[id] = set
	return cloneSet(set), nil
}

func (t *transaction) DeletePermissionSet(id directory.PermissionSetID) error {
	if _, ok := t.state.sets[id]; !ok {
		return &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "permission set not found",
			Path:    string(id),
		}
	}
	delete(t.state.sets, id)
	return nil
}

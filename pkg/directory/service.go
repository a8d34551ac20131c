package directory

import (
	"context"
	"strings"

	"github.com/mlohr/groupdrive/internal/logger"
)

const (
	// DefaultMaxDirectoriesPerGroup caps how many directories a single
	// group may own, root included.
	DefaultMaxDirectoriesPerGroup = 200

	// DefaultAdminRole is the role that receives full capabilities at
	// root bootstrap and is required for permission updates.
	DefaultAdminRole = "admin"
)

// Config carries the tunable parameters of the Service. Zero values fall
// back to the defaults above.
type Config struct {
	// MaxDirectoriesPerGroup is the per-group directory cap enforced at
	// folder creation.
	MaxDirectoriesPerGroup int

	// AdminRole is the name of the administrative role.
	AdminRole string
}

// Service orchestrates all directory-tree operations: root bootstrap,
// folder creation and deletion, permission updates, path reconstruction
// and search. It is the only entry point for presentation layers; the
// Store and the collaborators are never exposed directly.
//
// Every mutating operation runs inside a single Store.Update transaction,
// so multi-row changes (a directory plus its permission set, or a whole
// subtree) commit or roll back as a unit.
//
// Service is safe for concurrent use as long as its Store is.
type Service struct {
	store  Store
	groups GroupResolver
	files  FileCatalog

	maxDirsPerGroup int
	adminRole       string
}

// NewService wires a Service from its store and collaborators.
func NewService(store Store, groups GroupResolver, files FileCatalog, cfg Config) *Service {
	if cfg.MaxDirectoriesPerGroup <= 0 {
		cfg.MaxDirectoriesPerGroup = DefaultMaxDirectoriesPerGroup
	}
	if cfg.AdminRole == "" {
		cfg.AdminRole = DefaultAdminRole
	}
	return &Service{
		store:           store,
		groups:          groups,
		files:           files,
		maxDirsPerGroup: cfg.MaxDirectoriesPerGroup,
		adminRole:       strings.ToLower(cfg.AdminRole),
	}
}

// roleCache memoizes the actor's resolved role per group for the duration
// of one top-level operation. Membership cannot change mid-operation, so
// repeated capability checks along a tree walk cost one resolver call.
type roleCache struct {
	resolver GroupResolver
	actor    string
	roles    map[GroupID]string
}

func (s *Service) newRoleCache(actor string) *roleCache {
	return &roleCache{
		resolver: s.groups,
		actor:    actor,
		roles:    make(map[GroupID]string, 1),
	}
}

func (c *roleCache) role(ctx context.Context, group GroupID) (string, error) {
	if role, ok := c.roles[group]; ok {
		return role, nil
	}
	role, err := c.resolver.RoleOf(ctx, c.actor, group)
	if err != nil {
		return "", err
	}
	role = strings.ToLower(role)
	c.roles[group] = role
	return role, nil
}

// allows looks up the directory's permission set in the transaction and
// checks one capability bit for the given role. Absent roles are denied.
func allows(tx ReadTx, dir *Directory, role string, capability Capability) (bool, error) {
	set, err := tx.GetPermissionSet(dir.PermissionSetID)
	if err != nil {
		return false, err
	}
	return set.Allows(role, capability), nil
}

func deniedError(capability Capability, dir *Directory) *StoreError {
	code := ErrReadDenied
	switch capability {
	case CapabilityWrite:
		code = ErrWriteDenied
	case CapabilityDelete:
		code = ErrDeleteDenied
	}
	return &StoreError{
		Code:    code,
		Message: "no " + capability.String() + " capability on directory",
		Path:    string(dir.ID),
	}
}

// requireCapability resolves the actor's role (through the per-operation
// cache) and fails with the matching *Denied error if the directory's
// permission set does not grant the capability.
func requireCapability(ctx context.Context, tx ReadTx, roles *roleCache, dir *Directory, capability Capability) error {
	role, err := roles.role(ctx, dir.GroupOwner)
	if err != nil {
		return err
	}
	granted, err := allows(tx, dir, role, capability)
	if err != nil {
		return err
	}
	if !granted {
		return deniedError(capability, dir)
	}
	return nil
}

// GetOrCreateRoot returns the group's root directory, bootstrapping it on
// first use.
//
// Bootstrap builds the group's default permission set from the roles known
// to the group resolver: the administrative role gets read, write and
// delete, every other role gets read only. The root directory has an
// empty name and no parent. A group unknown to the resolver (no roles)
// fails with ErrUnknownGroup.
//
// The operation is idempotent. Two callers racing on the same group are
// serialized by the store's unique-root constraint; the loser observes
// ErrAlreadyExists internally and retries as a lookup.
func (s *Service) GetOrCreateRoot(ctx context.Context, group GroupID) (*Directory, error) {
	// Fast path: the root usually exists already.
	var root *Directory
	err := s.store.View(ctx, func(tx ReadTx) error {
		existing, err := tx.RootOf(group)
		if err != nil {
			return err
		}
		root = existing
		return nil
	})
	if err == nil {
		return root, nil
	}
	if !IsCode(err, ErrNotFound) {
		return nil, err
	}

	knownRoles, err := s.groups.RolesOf(ctx, group)
	if err != nil {
		return nil, err
	}
	if len(knownRoles) == 0 {
		return nil, &StoreError{
			Code:    ErrUnknownGroup,
			Message: "group has no roles",
			Path:    string(group),
		}
	}

	entries := s.defaultEntries(knownRoles)

	err = s.store.Update(ctx, func(tx Tx) error {
		// Re-check inside the transaction: another caller may have won
		// the bootstrap race between our lookup and now.
		if existing, err := tx.RootOf(group); err == nil {
			root = existing
			return nil
		} else if !IsCode(err, ErrNotFound) {
			return err
		}

		set, err := tx.CreatePermissionSet(entries)
		if err != nil {
			return err
		}
		created, err := tx.CreateDirectory(&Directory{
			GroupOwner:      group,
			PermissionSetID: set.ID,
		})
		if err != nil {
			return err
		}
		root = created
		return nil
	})
	if err != nil {
		if IsCode(err, ErrAlreadyExists) {
			// Lost the bootstrap race after all; the winner's root is
			// the result.
			return s.lookupRoot(ctx, group)
		}
		return nil, err
	}
	logger.Info("bootstrapped root directory %s for group %s", root.ID, group)
	return root, nil
}

func (s *Service) lookupRoot(ctx context.Context, group GroupID) (*Directory, error) {
	var root *Directory
	err := s.store.View(ctx, func(tx ReadTx) error {
		existing, err := tx.RootOf(group)
		if err != nil {
			return err
		}
		root = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

func (s *Service) defaultEntries(knownRoles []string) []PermissionEntry {
	entries := make([]PermissionEntry, 0, len(knownRoles)+1)
	entries = append(entries, PermissionEntry{
		Role:      s.adminRole,
		CanRead:   true,
		CanWrite:  true,
		CanDelete: true,
	})
	for _, role := range knownRoles {
		role = strings.ToLower(role)
		if role == s.adminRole {
			continue
		}
		entries = append(entries, PermissionEntry{Role: role, CanRead: true})
	}
	return entries
}

// CreateFolder creates a directory under parentID on behalf of actor.
//
// The actor needs the write capability on the parent. The new directory
// inherits the parent's group, and its permission set follows the
// branch rule: a child of the root gets a fresh copy of the root's set,
// any deeper directory shares its parent's set by reference.
func (s *Service) CreateFolder(ctx context.Context, actor string, parentID DirectoryID, name string) (*Directory, error) {
	if name == "" {
		return nil, &StoreError{
			Code:    ErrInvalidName,
			Message: "directory name must not be empty",
		}
	}

	roles := s.newRoleCache(actor)
	var created *Directory
	err := s.store.Update(ctx, func(tx Tx) error {
		parent, err := tx.GetDirectory(parentID)
		if err != nil {
			return err
		}

		count, err := tx.CountInGroup(parent.GroupOwner)
		if err != nil {
			return err
		}
		if count >= s.maxDirsPerGroup {
			return &StoreError{
				Code:    ErrQuotaExceeded,
				Message: "group reached its directory limit",
				Path:    string(parent.GroupOwner),
			}
		}

		if err := requireCapability(ctx, tx, roles, parent, CapabilityWrite); err != nil {
			return err
		}

		setID := parent.PermissionSetID
		if parent.IsRoot() {
			// Branch point: direct children of the root own their
			// permission set, seeded with the root's entries.
			rootSet, err := tx.GetPermissionSet(parent.PermissionSetID)
			if err != nil {
				return err
			}
			branchSet, err := tx.CreatePermissionSet(rootSet.CloneEntries())
			if err != nil {
				return err
			}
			setID = branchSet.ID
		}

		created, err = tx.CreateDirectory(&Directory{
			Name:            name,
			ParentID:        &parentID,
			GroupOwner:      parent.GroupOwner,
			PermissionSetID: setID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("created directory %s (%q) under %s", created.ID, name, parentID)
	return created, nil
}

// DeleteFolder deletes a single empty directory and returns its parent,
// or nil if a root was deleted.
//
// The directory must contain no files and no subdirectories; otherwise
// the call fails with ErrNotEmpty and callers have to empty it first (or
// use DeleteFolderRecursive). The actor needs the delete capability.
//
// The directory's permission set is reclaimed only if this directory was
// its unique owner: a root, or a directory whose set differs from its
// parent's. Deeper directories share their branch's set, which stays
// untouched.
func (s *Service) DeleteFolder(ctx context.Context, actor string, dirID DirectoryID) (*Directory, error) {
	roles := s.newRoleCache(actor)
	var parent *Directory
	err := s.store.Update(ctx, func(tx Tx) error {
		dir, err := tx.GetDirectory(dirID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, tx, roles, dir, CapabilityDelete); err != nil {
			return err
		}

		containedFiles, err := s.files.FilesIn(ctx, dirID)
		if err != nil {
			return err
		}
		if len(containedFiles) > 0 {
			return &StoreError{
				Code:    ErrNotEmpty,
				Message: "directory still contains files",
				Path:    string(dirID),
			}
		}

		parent = nil
		if dir.ParentID != nil {
			parent, err = tx.GetDirectory(*dir.ParentID)
			if err != nil {
				return err
			}
		}

		// DeleteDirectory itself fails with ErrNotEmpty on remaining
		// child directories.
		if err := tx.DeleteDirectory(dirID); err != nil {
			return err
		}
		return reclaimPermissionSet(tx, dir, parent)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("deleted directory %s", dirID)
	return parent, nil
}

// reclaimPermissionSet drops the deleted directory's permission set when
// the directory was its unique owner. Roots and branch points own their
// set; everything deeper shares the branch's set by reference and must
// leave it alone.
func reclaimPermissionSet(tx Tx, deleted *Directory, parent *Directory) error {
	if parent != nil && parent.PermissionSetID == deleted.PermissionSetID {
		return nil
	}
	return tx.DeletePermissionSet(deleted.PermissionSetID)
}

// DeleteFolderRecursive deletes the whole subtree rooted at dirID,
// including every contained file (through the file catalog), and returns
// the subtree root's parent, or nil if a group root was deleted.
//
// The actor needs the delete capability on the subtree root; descendants
// are not re-checked, deleting the root of a branch implies the branch.
// The walk is depth-first and bottom-up: each directory is emptied of
// files, deleted, and its permission set reclaimed under the same rule as
// DeleteFolder. All directory and permission-set rows go in one store
// transaction; file-metadata removal goes through the external catalog
// and is therefore only as atomic as that collaborator.
func (s *Service) DeleteFolderRecursive(ctx context.Context, actor string, dirID DirectoryID) (*Directory, error) {
	roles := s.newRoleCache(actor)
	var parent *Directory
	err := s.store.Update(ctx, func(tx Tx) error {
		dir, err := tx.GetDirectory(dirID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, tx, roles, dir, CapabilityDelete); err != nil {
			return err
		}

		parent = nil
		if dir.ParentID != nil {
			parent, err = tx.GetDirectory(*dir.ParentID)
			if err != nil {
				return err
			}
		}
		return s.deleteSubtree(ctx, tx, dir, parent)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("recursively deleted directory %s", dirID)
	return parent, nil
}

func (s *Service) deleteSubtree(ctx context.Context, tx Tx, dir *Directory, parent *Directory) error {
	children, err := tx.ChildrenOf(dir.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.deleteSubtree(ctx, tx, child, dir); err != nil {
			return err
		}
	}
	if err := s.files.RemoveFilesIn(ctx, dir.ID); err != nil {
		return err
	}
	if err := tx.DeleteDirectory(dir.ID); err != nil {
		return err
	}
	return reclaimPermissionSet(tx, dir, parent)
}

// UpdatePermission replaces the entries of the directory's permission set
// in place, keeping the set's identity.
//
// Because permission sets are shared along a branch, the new entries take
// effect for every directory referencing the same set: the whole subtree
// below the nearest branch point, not just dirID. That is the intended
// contract; permission edits apply to the branch.
//
// Only holders of the administrative role in the directory's group may
// call this; anything else fails with ErrNotAdmin.
func (s *Service) UpdatePermission(ctx context.Context, actor string, dirID DirectoryID, entries []PermissionEntry) (*PermissionSet, error) {
	normalized, err := NormalizeEntries(entries)
	if err != nil {
		return nil, err
	}

	roles := s.newRoleCache(actor)
	var updated *PermissionSet
	err = s.store.Update(ctx, func(tx Tx) error {
		dir, err := tx.GetDirectory(dirID)
		if err != nil {
			return err
		}
		role, err := roles.role(ctx, dir.GroupOwner)
		if err != nil {
			return err
		}
		if role != s.adminRole {
			return &StoreError{
				Code:    ErrNotAdmin,
				Message: "permission updates require the administrative role",
				Path:    string(dir.GroupOwner),
			}
		}
		updated, err = tx.ReplacePermissionSet(dir.PermissionSetID, normalized)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("replaced permission set %s via directory %s", updated.ID, dirID)
	return updated, nil
}

// GetSubFolders returns the direct children of dirID. The actor needs the
// read capability on dirID itself; children are returned regardless of
// their own permission sets.
func (s *Service) GetSubFolders(ctx context.Context, actor string, dirID DirectoryID) ([]*Directory, error) {
	roles := s.newRoleCache(actor)
	var children []*Directory
	err := s.store.View(ctx, func(tx ReadTx) error {
		dir, err := tx.GetDirectory(dirID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, tx, roles, dir, CapabilityRead); err != nil {
			return err
		}
		children, err = tx.ChildrenOf(dirID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

// GetDirectoryPath returns the chain of ancestors of dirID, root first,
// ending with the directory itself.
func (s *Service) GetDirectoryPath(ctx context.Context, dirID DirectoryID) ([]*Directory, error) {
	var path []*Directory
	err := s.store.View(ctx, func(tx ReadTx) error {
		current, err := tx.GetDirectory(dirID)
		if err != nil {
			return err
		}
		path = []*Directory{current}
		for current.ParentID != nil {
			current, err = tx.GetDirectory(*current.ParentID)
			if err != nil {
				return err
			}
			path = append(path, current)
		}
		// Collected leaf-to-root; callers want root first.
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

// GetPermissions returns the permission set currently effective on dirID.
// The actor needs the read capability.
func (s *Service) GetPermissions(ctx context.Context, actor string, dirID DirectoryID) (*PermissionSet, error) {
	roles := s.newRoleCache(actor)
	var set *PermissionSet
	err := s.store.View(ctx, func(tx ReadTx) error {
		dir, err := tx.GetDirectory(dirID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, tx, roles, dir, CapabilityRead); err != nil {
			return err
		}
		set, err = tx.GetPermissionSet(dir.PermissionSetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

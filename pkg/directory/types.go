package directory

import (
	"strings"
	"time"
)

// DirectoryID uniquely identifies a directory. IDs are opaque strings
// assigned by the store at creation time.
type DirectoryID string

// PermissionSetID uniquely identifies a permission set.
type PermissionSetID string

// GroupID identifies the group (namespace) that owns a directory tree.
type GroupID string

// Directory is a node in a group's directory tree.
//
// Every group has exactly one root directory, recognizable by a nil
// ParentID and an empty Name. All other directories have a non-empty name
// and a parent in the same group.
//
// PermissionSetID is never empty after creation. Whether a directory owns
// its permission set or shares it with its parent is decided once, at
// creation time: a direct child of the root receives a fresh copy of the
// root's set, every deeper directory shares its parent's set by reference.
// The delete path relies on this layout to decide when a set can be
// reclaimed.
type Directory struct {
	ID              DirectoryID
	Name            string
	ParentID        *DirectoryID
	GroupOwner      GroupID
	PermissionSetID PermissionSetID
	CreatedAt       time.Time
}

// IsRoot reports whether the directory is a group root.
func (d *Directory) IsRoot() bool {
	return d.ParentID == nil
}

// Capability is one of the three access rights a role can hold on a
// directory.
type Capability int

const (
	CapabilityRead Capability = iota
	CapabilityWrite
	CapabilityDelete
)

func (c Capability) String() string {
	switch c {
	case CapabilityRead:
		return "read"
	case CapabilityWrite:
		return "write"
	case CapabilityDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// PermissionEntry grants a single role its read/write/delete capabilities.
// Roles are case-normalized (lower-cased) so they compare equal to the
// role identifiers supplied by the group resolver.
type PermissionEntry struct {
	Role      string
	CanRead   bool
	CanWrite  bool
	CanDelete bool
}

// PermissionSet is a named collection of role grants. A role absent from
// Entries has no capabilities at all (default-deny).
type PermissionSet struct {
	ID      PermissionSetID
	Entries []PermissionEntry
}

// Entry returns the grant for role, if any. The lookup is
// case-insensitive.
func (ps *PermissionSet) Entry(role string) (PermissionEntry, bool) {
	role = strings.ToLower(role)
	for _, entry := range ps.Entries {
		if entry.Role == role {
			return entry, true
		}
	}
	return PermissionEntry{}, false
}

// Allows reports whether role holds the given capability. Unknown roles
// are denied.
func (ps *PermissionSet) Allows(role string, capability Capability) bool {
	entry, ok := ps.Entry(role)
	if !ok {
		return false
	}
	switch capability {
	case CapabilityRead:
		return entry.CanRead
	case CapabilityWrite:
		return entry.CanWrite
	case CapabilityDelete:
		return entry.CanDelete
	default:
		return false
	}
}

// CloneEntries returns an independent copy of the set's entries. Used when
// a new directory branches off the root and needs its own set with the
// same initial grants.
func (ps *PermissionSet) CloneEntries() []PermissionEntry {
	entries := make([]PermissionEntry, len(ps.Entries))
	copy(entries, ps.Entries)
	return entries
}

// NormalizeEntries lower-cases the role of every entry and validates the
// result: roles must be non-empty and unique within the set.
func NormalizeEntries(entries []PermissionEntry) ([]PermissionEntry, error) {
	normalized := make([]PermissionEntry, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		role := strings.ToLower(strings.TrimSpace(entry.Role))
		if role == "" {
			return nil, &StoreError{
				Code:    ErrInvalidArgument,
				Message: "permission entry has empty role",
			}
		}
		if seen[role] {
			return nil, &StoreError{
				Code:    ErrInvalidArgument,
				Message: "duplicate role in permission entries",
				Path:    role,
			}
		}
		seen[role] = true
		entry.Role = role
		normalized = append(normalized, entry)
	}
	return normalized, nil
}

// File is the read-only view of a file's metadata, as supplied by the
// external file catalog. File content and file lifecycle are owned
// elsewhere; search only filters on these attributes.
type File struct {
	ID          string
	Name        string
	DirectoryID DirectoryID
	Type        string
	Owner       string
	Tags        []string
}

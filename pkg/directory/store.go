package directory

import "context"

// ReadTx is the read-only view of a store transaction.
//
// All reads within one View or Update call observe a consistent snapshot:
// a directory returned by ChildrenOf will not vanish before a subsequent
// GetDirectory in the same transaction.
type ReadTx interface {
	// GetDirectory returns the directory with the given id.
	// Returns ErrNotFound if the id is unknown.
	GetDirectory(id DirectoryID) (*Directory, error)

	// ChildrenOf returns the direct child directories of parent, in no
	// particular order. An unknown parent yields an empty slice, not an
	// error; callers that need existence checked call GetDirectory first.
	ChildrenOf(parent DirectoryID) ([]*Directory, error)

	// RootOf returns the group's root directory.
	// Returns ErrNotFound if the group has no root yet.
	RootOf(group GroupID) (*Directory, error)

	// CountInGroup returns the number of directories owned by the group,
	// including the root.
	CountInGroup(group GroupID) (int, error)

	// GetPermissionSet returns the permission set with the given id.
	// Returns ErrNotFound if the id is unknown.
	GetPermissionSet(id PermissionSetID) (*PermissionSet, error)
}

// Tx is a read-write store transaction. Mutations performed through a Tx
// become visible to other transactions only when the enclosing Update
// commits; if the Update callback returns an error, none of them do.
type Tx interface {
	ReadTx

	// CreateDirectory persists a new directory and assigns its ID and
	// CreatedAt. The input must carry GroupOwner and PermissionSetID, and
	// a non-empty Name unless it is a root (nil ParentID); otherwise the
	// store fails with ErrInvalidName or ErrInvalidArgument.
	//
	// Creating a second root for a group fails with ErrAlreadyExists.
	// This is the uniqueness constraint that serializes concurrent root
	// bootstrap: the losing caller retries as a lookup.
	CreateDirectory(dir *Directory) (*Directory, error)

	// SaveDirectory overwrites an existing directory row.
	// Returns ErrNotFound if the id is unknown.
	SaveDirectory(dir *Directory) error

	// DeleteDirectory removes a single directory row. It fails with
	// ErrNotEmpty if the directory still has child directories; it does
	// not cascade. The caller is responsible for emptying first.
	DeleteDirectory(id DirectoryID) error

	// CreatePermissionSet persists a new set with the given entries and
	// assigns its ID. Entries are normalized (lower-cased roles) and
	// validated.
	CreatePermissionSet(entries []PermissionEntry) (*PermissionSet, error)

	// ReplacePermissionSet swaps the entries of an existing set, keeping
	// its identity. Every directory referencing the id observes the new
	// entries. Returns ErrNotFound if the id is unknown.
	ReplacePermissionSet(id PermissionSetID, entries []PermissionEntry) (*PermissionSet, error)

	// DeletePermissionSet removes a set. Returns ErrNotFound if the id is
	// unknown. The store does not verify that no directory references the
	// set; the service's reclaim rule is the only caller and guarantees
	// it.
	DeletePermissionSet(id PermissionSetID) error
}

// Store is the persistence contract for the directory tree and its
// permission sets.
//
// The transactional shape exists because every mutating service operation
// touches multiple rows (a directory and a permission set, or a whole
// subtree) and must apply all of them or none. Implementations guarantee
// that an Update whose callback returns an error leaves the store exactly
// as it was.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx ReadTx) error) error

	// Update runs fn in a read-write transaction and commits its changes
	// if fn returns nil. A non-nil return from fn rolls everything back
	// and is returned to the caller unchanged.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Close releases store resources. The store must not be used after
	// Close returns.
	Close() error
}

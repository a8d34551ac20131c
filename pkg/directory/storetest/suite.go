// Package storetest provides a reusable contract test suite for
// directory.Store implementations. It tests the interface contract, not
// implementation details, so every backend (memory, badger) runs the same
// assertions.
package storetest

import (
	"context"
	"testing"

	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/stretchr/testify/require"
)

// Suite is the contract test suite for Store implementations.
type Suite struct {
	// NewStore creates a fresh store for each test, ensuring isolation.
	// Cleanup is the test's responsibility (use t.Cleanup).
	NewStore func(t *testing.T) directory.Store
}

// Run executes all tests in the suite.
func (suite *Suite) Run(t *testing.T) {
	t.Run("Directory", suite.runDirectoryTests)
	t.Run("PermissionSet", suite.runPermissionSetTests)
	t.Run("Atomicity", suite.runAtomicityTests)
}

// ============================================================================
// Helpers
// ============================================================================

func createSet(t *testing.T, tx directory.Tx, roles ...string) *directory.PermissionSet {
	t.Helper()
	entries := make([]directory.PermissionEntry, 0, len(roles))
	for _, role := range roles {
		entries = append(entries, directory.PermissionEntry{Role: role, CanRead: true})
	}
	set, err := tx.CreatePermissionSet(entries)
	require.NoError(t, err)
	return set
}

// createRoot bootstraps a root directory for the group inside one Update.
func createRoot(t *testing.T, store directory.Store, group directory.GroupID) *directory.Directory {
	t.Helper()
	var root *directory.Directory
	err := store.Update(context.Background(), func(tx directory.Tx) error {
		set := createSet(t, tx, "admin", "member")
		created, err := tx.CreateDirectory(&directory.Directory{
			GroupOwner:      group,
			PermissionSetID: set.ID,
		})
		if err != nil {
			return err
		}
		root = created
		return nil
	})
	require.NoError(t, err)
	return root
}

func createChild(t *testing.T, store directory.Store, parent *directory.Directory, name string) *directory.Directory {
	t.Helper()
	var child *directory.Directory
	err := store.Update(context.Background(), func(tx directory.Tx) error {
		created, err := tx.CreateDirectory(&directory.Directory{
			Name:            name,
			ParentID:        &parent.ID,
			GroupOwner:      parent.GroupOwner,
			PermissionSetID: parent.PermissionSetID,
		})
		if err != nil {
			return err
		}
		child = created
		return nil
	})
	require.NoError(t, err)
	return child
}

// AssertErrorCode fails the test unless err is a StoreError with the
// wanted code.
func AssertErrorCode(t *testing.T, want directory.ErrorCode, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, directory.IsCode(err, want),
		"expected error code %v, got %v (%v)", want, directory.CodeOf(err), err)
}

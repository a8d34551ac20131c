package badgerstore_test

import (
	"context"
	"testing"

	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/mlohr/groupdrive/pkg/directory/badgerstore"
	"github.com/mlohr/groupdrive/pkg/directory/storetest"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore(t *testing.T) {
	suite := storetest.Suite{
		NewStore: func(t *testing.T) directory.Store {
			store, err := badgerstore.Open(badgerstore.Config{Path: t.TempDir()})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
	suite.Run(t)
}

// The in-memory variant is what most tests elsewhere use; make sure it
// accepts writes without a database directory.
func TestBadgerStoreInMemory(t *testing.T) {
	store, err := badgerstore.Open(badgerstore.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	err = store.Update(context.Background(), func(tx directory.Tx) error {
		set, err := tx.CreatePermissionSet([]directory.PermissionEntry{
			{Role: "admin", CanRead: true, CanWrite: true, CanDelete: true},
		})
		if err != nil {
			return err
		}
		_, err = tx.CreateDirectory(&directory.Directory{
			GroupOwner:      "lectures",
			PermissionSetID: set.ID,
		})
		return err
	})
	require.NoError(t, err)

	err = store.View(context.Background(), func(tx directory.ReadTx) error {
		root, err := tx.RootOf("lectures")
		require.NoError(t, err)
		require.Nil(t, root.ParentID)
		return nil
	})
	require.NoError(t, err)
}

// Directory rows must survive a close/reopen cycle.
func TestBadgerStorePersistence(t *testing.T) {
	path := t.TempDir()

	store, err := badgerstore.Open(badgerstore.Config{Path: path})
	require.NoError(t, err)

	var rootID directory.DirectoryID
	err = store.Update(context.Background(), func(tx directory.Tx) error {
		set, err := tx.CreatePermissionSet([]directory.PermissionEntry{
			{Role: "admin", CanRead: true, CanWrite: true, CanDelete: true},
		})
		if err != nil {
			return err
		}
		root, err := tx.CreateDirectory(&directory.Directory{
			GroupOwner:      "lectures",
			PermissionSetID: set.ID,
		})
		if err != nil {
			return err
		}
		rootID = root.ID
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := badgerstore.Open(badgerstore.Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	err = reopened.View(context.Background(), func(tx directory.ReadTx) error {
		root, err := tx.RootOf("lectures")
		require.NoError(t, err)
		require.Equal(t, rootID, root.ID)

		set, err := tx.GetPermissionSet(root.PermissionSetID)
		require.NoError(t, err)
		require.True(t, set.Allows("admin", directory.CapabilityDelete))
		return nil
	})
	require.NoError(t, err)
}

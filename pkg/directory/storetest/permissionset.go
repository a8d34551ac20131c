package storetest

import (
	"context"
	"testing"

	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/stretchr/testify/require"
)

func (suite *Suite) runPermissionSetTests(t *testing.T) {
	t.Run("CreateNormalizesRoles", suite.testCreateNormalizesRoles)
	t.Run("CreateRejectsInvalidEntries", suite.testCreateRejectsInvalidEntries)
	t.Run("Replace", suite.testReplace)
	t.Run("Delete", suite.testDeleteSet)
}

func (suite *Suite) testCreateNormalizesRoles(t *testing.T) {
	store := suite.NewStore(t)
	err := store.Update(context.Background(), func(tx directory.Tx) error {
		set, err := tx.CreatePermissionSet([]directory.PermissionEntry{
			{Role: "Admin", CanRead: true, CanWrite: true, CanDelete: true},
			{Role: " Member ", CanRead: true},
		})
		require.NoError(t, err)
		require.NotEmpty(t, set.ID)

		loaded, err := tx.GetPermissionSet(set.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Entries, 2)
		require.Equal(t, "admin", loaded.Entries[0].Role)
		require.Equal(t, "member", loaded.Entries[1].Role)

		entry, ok := loaded.Entry("ADMIN")
		require.True(t, ok)
		require.True(t, entry.CanDelete)
		return nil
	})
	require.NoError(t, err)
}

func (suite *Suite) testCreateRejectsInvalidEntries(t *testing.T) {
	store := suite.NewStore(t)

	err := store.Update(context.Background(), func(tx directory.Tx) error {
		_, err := tx.CreatePermissionSet([]directory.PermissionEntry{{Role: ""}})
		return err
	})
	AssertErrorCode(t, directory.ErrInvalidArgument, err)

	err = store.Update(context.Background(), func(tx directory.Tx) error {
		_, err := tx.CreatePermissionSet([]directory.PermissionEntry{
			{Role: "admin"},
			{Role: "Admin"},
		})
		return err
	})
	AssertErrorCode(t, directory.ErrInvalidArgument, err)
}

func (suite *Suite) testReplace(t *testing.T) {
	store := suite.NewStore(t)
	var setID directory.PermissionSetID

	err := store.Update(context.Background(), func(tx directory.Tx) error {
		set := createSet(t, tx, "admin", "member")
		setID = set.ID

		replaced, err := tx.ReplacePermissionSet(set.ID, []directory.PermissionEntry{
			{Role: "admin", CanRead: true, CanWrite: true, CanDelete: true},
		})
		require.NoError(t, err)
		require.Equal(t, set.ID, replaced.ID)
		return nil
	})
	require.NoError(t, err)

	err = store.View(context.Background(), func(tx directory.ReadTx) error {
		loaded, err := tx.GetPermissionSet(setID)
		require.NoError(t, err)
		require.Len(t, loaded.Entries, 1)
		require.False(t, loaded.Allows("member", directory.CapabilityRead))
		require.True(t, loaded.Allows("admin", directory.CapabilityWrite))
		return nil
	})
	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx directory.Tx) error {
		_, err := tx.ReplacePermissionSet("missing", nil)
		return err
	})
	AssertErrorCode(t, directory.ErrNotFound, err)
}

func (suite *Suite) testDeleteSet(t *testing.T) {
	store := suite.NewStore(t)
	err := store.Update(context.Background(), func(tx directory.Tx) error {
		set := createSet(t, tx, "admin")
		require.NoError(t, tx.DeletePermissionSet(set.ID))

		_, err := tx.GetPermissionSet(set.ID)
		AssertErrorCode(t, directory.ErrNotFound, err)

		err = tx.DeletePermissionSet(set.ID)
		AssertErrorCode(t, directory.ErrNotFound, err)
		return nil
	})
	require.NoError(t, err)
}

package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/stretchr/testify/require"
)

func (suite *Suite) runAtomicityTests(t *testing.T) {
	t.Run("UpdateRollsBackOnError", suite.testUpdateRollsBackOnError)
	t.Run("FailedDeleteLeavesRows", suite.testFailedDeleteLeavesRows)
}

// A failed Update must leave no trace, even if it created rows before the
// error.
func (suite *Suite) testUpdateRollsBackOnError(t *testing.T) {
	store := suite.NewStore(t)
	boom := errors.New("boom")

	var setID directory.PermissionSetID
	var dirID directory.DirectoryID
	err := store.Update(context.Background(), func(tx directory.Tx) error {
		set := createSet(t, tx, "admin")
		setID = set.ID
		created, err := tx.CreateDirectory(&directory.Directory{
			GroupOwner:      "lectures",
			PermissionSetID: set.ID,
		})
		require.NoError(t, err)
		dirID = created.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.View(context.Background(), func(tx directory.ReadTx) error {
		_, err := tx.GetPermissionSet(setID)
		AssertErrorCode(t, directory.ErrNotFound, err)

		_, err = tx.GetDirectory(dirID)
		AssertErrorCode(t, directory.ErrNotFound, err)

		_, err = tx.RootOf("lectures")
		AssertErrorCode(t, directory.ErrNotFound, err)

		count, err := tx.CountInGroup("lectures")
		require.NoError(t, err)
		require.Zero(t, count)
		return nil
	})
	require.NoError(t, err)
}

// A multi-row mutation that fails halfway must not leave partial state:
// here a directory delete succeeds but the callback then errors, so the
// directory has to still exist afterwards.
func (suite *Suite) testFailedDeleteLeavesRows(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")
	child := createChild(t, store, root, "analysis")
	boom := errors.New("boom")

	err := store.Update(context.Background(), func(tx directory.Tx) error {
		require.NoError(t, tx.DeleteDirectory(child.ID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.View(context.Background(), func(tx directory.ReadTx) error {
		loaded, err := tx.GetDirectory(child.ID)
		require.NoError(t, err)
		require.Equal(t, child.ID, loaded.ID)

		children, err := tx.ChildrenOf(root.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		return nil
	})
	require.NoError(t, err)
}

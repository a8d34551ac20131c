package storetest

import (
	"context"
	"testing"

	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/stretchr/testify/require"
)

func (suite *Suite) runDirectoryTests(t *testing.T) {
	t.Run("CreateRootAssignsIdentity", suite.testCreateRootAssignsIdentity)
	t.Run("CreateSecondRootFails", suite.testCreateSecondRootFails)
	t.Run("CreateValidation", suite.testCreateValidation)
	t.Run("GetNotFound", suite.testGetNotFound)
	t.Run("SaveDirectory", suite.testSaveDirectory)
	t.Run("DeleteDirectory", suite.testDeleteDirectory)
	t.Run("DeleteWithChildrenFails", suite.testDeleteWithChildrenFails)
	t.Run("DeleteRootClearsRootOf", suite.testDeleteRootClearsRootOf)
	t.Run("ChildrenOf", suite.testChildrenOf)
	t.Run("CountInGroup", suite.testCountInGroup)
}

func (suite *Suite) testCreateRootAssignsIdentity(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")

	require.NotEmpty(t, root.ID)
	require.False(t, root.CreatedAt.IsZero())
	require.Nil(t, root.ParentID)
	require.Empty(t, root.Name)

	err := store.View(context.Background(), func(tx directory.ReadTx) error {
		found, err := tx.RootOf("lectures")
		require.NoError(t, err)
		require.Equal(t, root.ID, found.ID)

		loaded, err := tx.GetDirectory(root.ID)
		require.NoError(t, err)
		require.Equal(t, directory.GroupID("lectures"), loaded.GroupOwner)
		return nil
	})
	require.NoError(t, err)
}

func (suite *Suite) testCreateSecondRootFails(t *testing.T) {
	store := suite.NewStore(t)
	createRoot(t, store, "lectures")

	err := store.Update(context.Background(), func(tx directory.Tx) error {
		set := createSet(t, tx, "admin")
		_, err := tx.CreateDirectory(&directory.Directory{
			GroupOwner:      "lectures",
			PermissionSetID: set.ID,
		})
		return err
	})
	AssertErrorCode(t, directory.ErrAlreadyExists, err)
}

func (suite *Suite) testCreateValidation(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")

	cases := []struct {
		name string
		dir  directory.Directory
		want directory.ErrorCode
	}{
		{
			name: "MissingGroup",
			dir:  directory.Directory{Name: "a", ParentID: &root.ID, PermissionSetID: root.PermissionSetID},
			want: directory.ErrInvalidArgument,
		},
		{
			name: "MissingPermissionSet",
			dir:  directory.Directory{Name: "a", ParentID: &root.ID, GroupOwner: "lectures"},
			want: directory.ErrInvalidArgument,
		},
		{
			name: "UnknownPermissionSet",
			dir:  directory.Directory{Name: "a", ParentID: &root.ID, GroupOwner: "lectures", PermissionSetID: "missing"},
			want: directory.ErrNotFound,
		},
		{
			name: "EmptyNameNonRoot",
			dir:  directory.Directory{ParentID: &root.ID, GroupOwner: "lectures", PermissionSetID: root.PermissionSetID},
			want: directory.ErrInvalidName,
		},
		{
			name: "CrossGroupParent",
			dir:  directory.Directory{Name: "a", ParentID: &root.ID, GroupOwner: "other", PermissionSetID: root.PermissionSetID},
			want: directory.ErrInvalidArgument,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Update(context.Background(), func(tx directory.Tx) error {
				dir := tc.dir
				_, err := tx.CreateDirectory(&dir)
				return err
			})
			AssertErrorCode(t, tc.want, err)
		})
	}

	t.Run("UnknownParent", func(t *testing.T) {
		err := store.Update(context.Background(), func(tx directory.Tx) error {
			missing := directory.DirectoryID("missing")
			_, err := tx.CreateDirectory(&directory.Directory{
				Name:            "a",
				ParentID:        &missing,
				GroupOwner:      "lectures",
				PermissionSetID: root.PermissionSetID,
			})
			return err
		})
		AssertErrorCode(t, directory.ErrNotFound, err)
	})
}

func (suite *Suite) testGetNotFound(t *testing.T) {
	store := suite.NewStore(t)
	err := store.View(context.Background(), func(tx directory.ReadTx) error {
		_, err := tx.GetDirectory("missing")
		return err
	})
	AssertErrorCode(t, directory.ErrNotFound, err)

	err = store.View(context.Background(), func(tx directory.ReadTx) error {
		_, err := tx.RootOf("missing")
		return err
	})
	AssertErrorCode(t, directory.ErrNotFound, err)
}

func (suite *Suite) testSaveDirectory(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")
	child := createChild(t, store, root, "analysis")

	child.Name = "algebra"
	err := store.Update(context.Background(), func(tx directory.Tx) error {
		return tx.SaveDirectory(child)
	})
	require.NoError(t, err)

	err = store.View(context.Background(), func(tx directory.ReadTx) error {
		loaded, err := tx.GetDirectory(child.ID)
		require.NoError(t, err)
		require.Equal(t, "algebra", loaded.Name)
		return nil
	})
	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx directory.Tx) error {
		return tx.SaveDirectory(&directory.Directory{ID: "missing"})
	})
	AssertErrorCode(t, directory.ErrNotFound, err)
}

func (suite *Suite) testDeleteDirectory(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")
	child := createChild(t, store, root, "analysis")

	err := store.Update(context.Background(), func(tx directory.Tx) error {
		return tx.DeleteDirectory(child.ID)
	})
	require.NoError(t, err)

	err = store.View(context.Background(), func(tx directory.ReadTx) error {
		_, err := tx.GetDirectory(child.ID)
		return err
	})
	AssertErrorCode(t, directory.ErrNotFound, err)

	err = store.Update(context.Background(), func(tx directory.Tx) error {
		return tx.DeleteDirectory("missing")
	})
	AssertErrorCode(t, directory.ErrNotFound, err)
}

func (suite *Suite) testDeleteWithChildrenFails(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")
	createChild(t, store, root, "analysis")

	err := store.Update(context.Background(), func(tx directory.Tx) error {
		return tx.DeleteDirectory(root.ID)
	})
	AssertErrorCode(t, directory.ErrNotEmpty, err)
}

func (suite *Suite) testDeleteRootClearsRootOf(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")

	err := store.Update(context.Background(), func(tx directory.Tx) error {
		return tx.DeleteDirectory(root.ID)
	})
	require.NoError(t, err)

	err = store.View(context.Background(), func(tx directory.ReadTx) error {
		_, err := tx.RootOf("lectures")
		return err
	})
	AssertErrorCode(t, directory.ErrNotFound, err)

	// Bootstrap works again after the root is gone.
	createRoot(t, store, "lectures")
}

func (suite *Suite) testChildrenOf(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")
	a := createChild(t, store, root, "analysis")
	b := createChild(t, store, root, "algebra")
	nested := createChild(t, store, a, "exercises")

	err := store.View(context.Background(), func(tx directory.ReadTx) error {
		children, err := tx.ChildrenOf(root.ID)
		require.NoError(t, err)
		require.Len(t, children, 2)

		ids := map[directory.DirectoryID]bool{}
		for _, child := range children {
			ids[child.ID] = true
		}
		require.True(t, ids[a.ID])
		require.True(t, ids[b.ID])

		deep, err := tx.ChildrenOf(a.ID)
		require.NoError(t, err)
		require.Len(t, deep, 1)
		require.Equal(t, nested.ID, deep[0].ID)

		empty, err := tx.ChildrenOf(nested.ID)
		require.NoError(t, err)
		require.Empty(t, empty)
		return nil
	})
	require.NoError(t, err)
}

func (suite *Suite) testCountInGroup(t *testing.T) {
	store := suite.NewStore(t)
	root := createRoot(t, store, "lectures")
	createChild(t, store, root, "analysis")
	createChild(t, store, root, "algebra")
	createRoot(t, store, "seminars")

	err := store.View(context.Background(), func(tx directory.ReadTx) error {
		count, err := tx.CountInGroup("lectures")
		require.NoError(t, err)
		require.Equal(t, 3, count)

		count, err = tx.CountInGroup("seminars")
		require.NoError(t, err)
		require.Equal(t, 1, count)

		count, err = tx.CountInGroup("missing")
		require.NoError(t, err)
		require.Zero(t, count)
		return nil
	})
	require.NoError(t, err)
}

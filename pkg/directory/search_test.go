package directory_test

import (
	"context"
	"testing"

	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/mlohr/groupdrive/pkg/directory/query"
	"github.com/stretchr/testify/require"
)

func fileNames(matches []*directory.File) []string {
	names := make([]string, 0, len(matches))
	for _, file := range matches {
		names = append(names, file.Name)
	}
	return names
}

func TestSearchEmptyQueryReturnsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t)
	branch := f.mkdir(t, "bob", root.ID, "analysis")
	deep := f.mkdir(t, "bob", branch.ID, "exercises")

	f.files.Add(directory.File{Name: "readme.txt", DirectoryID: root.ID, Type: "text/plain", Owner: "bob"})
	f.files.Add(directory.File{Name: "script.pdf", DirectoryID: branch.ID, Type: "application/pdf", Owner: "jens"})
	f.files.Add(directory.File{Name: "sheet1.pdf", DirectoryID: deep.ID, Type: "application/pdf", Owner: "chris"})

	matches, err := f.service.Search(ctx, "alice", root.ID, query.New())
	require.NoError(t, err)
	require.Len(t, matches, 3)
}

func TestSearchFiltersByQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t)
	branch := f.mkdir(t, "bob", root.ID, "analysis")

	f.files.Add(directory.File{Name: "readme.txt", DirectoryID: root.ID, Type: "text/plain", Owner: "bob"})
	f.files.Add(directory.File{Name: "script.pdf", DirectoryID: branch.ID, Type: "application/pdf", Owner: "jens", Tags: []string{"skript"}})
	f.files.Add(directory.File{Name: "notes.txt", DirectoryID: branch.ID, Type: "text/plain", Owner: "jens"})

	matches, err := f.service.Search(ctx, "alice", root.ID, query.Parse("type:pdf"))
	require.NoError(t, err)
	require.Equal(t, []string{"script.pdf"}, fileNames(matches))

	matches, err = f.service.Search(ctx, "alice", root.ID, query.Parse("owner:jens"))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	matches, err = f.service.Search(ctx, "alice", root.ID, query.Parse("tag:skript owner:jens"))
	require.NoError(t, err)
	require.Equal(t, []string{"script.pdf"}, fileNames(matches))
}

// Depth-first order: a directory's own matches come before those of its
// descendants.
func TestSearchParentMatchesBeforeDescendants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t)
	branch := f.mkdir(t, "bob", root.ID, "analysis")
	deep := f.mkdir(t, "bob", branch.ID, "exercises")

	f.files.Add(directory.File{Name: "top.pdf", DirectoryID: root.ID, Type: "application/pdf", Owner: "bob"})
	f.files.Add(directory.File{Name: "mid.pdf", DirectoryID: branch.ID, Type: "application/pdf", Owner: "bob"})
	f.files.Add(directory.File{Name: "leaf.pdf", DirectoryID: deep.ID, Type: "application/pdf", Owner: "bob"})

	matches, err := f.service.Search(ctx, "bob", root.ID, query.Parse("type:pdf"))
	require.NoError(t, err)
	names := fileNames(matches)
	require.Len(t, names, 3)
	require.Equal(t, "top.pdf", names[0])
	require.Equal(t, "mid.pdf", names[1])
	require.Equal(t, "leaf.pdf", names[2])
}

func TestSearchScopedToSubtree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t)
	branch := f.mkdir(t, "bob", root.ID, "analysis")
	other := f.mkdir(t, "bob", root.ID, "algebra")

	f.files.Add(directory.File{Name: "inside.pdf", DirectoryID: branch.ID, Type: "application/pdf", Owner: "bob"})
	f.files.Add(directory.File{Name: "outside.pdf", DirectoryID: other.ID, Type: "application/pdf", Owner: "bob"})

	matches, err := f.service.Search(ctx, "bob", branch.ID, query.New())
	require.NoError(t, err)
	require.Equal(t, []string{"inside.pdf"}, fileNames(matches))
}

func TestSearchRequiresReadOnStartDirectory(t *testing.T) {
	f := newFixture(t)
	root := f.root(t)

	_, err := f.service.Search(context.Background(), "stranger", root.ID, query.New())
	assertCode(t, directory.ErrReadDenied, err)

	_, err = f.service.Search(context.Background(), "bob", "missing", query.New())
	assertCode(t, directory.ErrNotFound, err)
}

// Pinned behavior: a descendant directory whose permission set denies the
// actor read makes the whole search fail with ReadDenied; no partial
// results are returned.
func TestSearchDeniedBranchFailsFast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.root(t)
	open := f.mkdir(t, "bob", root.ID, "public")
	restricted := f.mkdir(t, "bob", root.ID, "restricted")

	f.files.Add(directory.File{Name: "open.pdf", DirectoryID: open.ID, Type: "application/pdf", Owner: "bob"})
	f.files.Add(directory.File{Name: "secret.pdf", DirectoryID: restricted.ID, Type: "application/pdf", Owner: "bob"})

	// The restricted branch owns its set (direct child of the root), so
	// cutting members out affects only that branch.
	_, err := f.service.UpdatePermission(ctx, "bob", restricted.ID, []directory.PermissionEntry{
		{Role: "admin", CanRead: true, CanWrite: true, CanDelete: true},
	})
	require.NoError(t, err)

	_, err = f.service.Search(ctx, "alice", root.ID, query.New())
	assertCode(t, directory.ErrReadDenied, err)

	// Searching only the open branch still works.
	matches, err := f.service.Search(ctx, "alice", open.ID, query.New())
	require.NoError(t, err)
	require.Equal(t, []string{"open.pdf"}, fileNames(matches))

	// The admin sees everything.
	matches, err = f.service.Search(ctx, "bob", root.ID, query.New())
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

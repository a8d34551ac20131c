package directory

import "context"

// GroupResolver resolves groups and role membership. It is an external
// collaborator: the engine never stores group membership itself, it only
// consults this interface at operation time.
type GroupResolver interface {
	// RolesOf returns all roles known for the group. An empty result
	// means the group does not exist.
	RolesOf(ctx context.Context, group GroupID) ([]string, error)

	// RoleOf returns the actor's role within the group, or the empty
	// string if the actor is not a member. Role identifiers are
	// lower-case.
	RoleOf(ctx context.Context, actor string, group GroupID) (string, error)
}

// FileCatalog is the external file-metadata collaborator. The engine
// reads file metadata during search and asks the catalog to drop a
// directory's files during recursive delete; it never touches file
// content.
type FileCatalog interface {
	// FilesIn returns the metadata of all files directly inside the
	// directory. An unknown or empty directory yields an empty slice.
	FilesIn(ctx context.Context, dir DirectoryID) ([]*File, error)

	// RemoveFilesIn deletes all file metadata directly inside the
	// directory.
	RemoveFilesIn(ctx context.Context, dir DirectoryID) error
}

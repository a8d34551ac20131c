package badgerstore

import "github.com/mlohr/groupdrive/pkg/directory"

// Key schema. Namespaced prefixes keep the different row types apart and
// make prefix scans cheap:
//
//	dir:<id>              JSON directory row
//	perm:<id>             JSON permission-set row
//	root:<group>          directory id of the group's root
//	child:<parent>:<id>   existence marker for one parent→child edge
//	group:<group>:<id>    existence marker for group membership (counting)
//
// The root:<group> key doubles as the unique constraint on roots: a
// transaction that creates a root writes this key after verifying its
// absence, and badger's conflict detection aborts the loser of a race.
const (
	prefixDirectory = "dir:"
	prefixPermSet   = "perm:"
	prefixRoot      = "root:"
	prefixChild     = "child:"
	prefixGroup     = "group:"
)

func keyDirectory(id directory.DirectoryID) []byte {
	return []byte(prefixDirectory + string(id))
}

func keyPermSet(id directory.PermissionSetID) []byte {
	return []byte(prefixPermSet + string(id))
}

func keyRoot(group directory.GroupID) []byte {
	return []byte(prefixRoot + string(group))
}

func keyChild(parent, child directory.DirectoryID) []byte {
	return []byte(prefixChild + string(parent) + ":" + string(child))
}

func keyChildScan(parent directory.DirectoryID) []byte {
	return []byte(prefixChild + string(parent) + ":")
}

func keyGroupMember(group directory.GroupID, id directory.DirectoryID) []byte {
	return []byte(prefixGroup + string(group) + ":" + string(id))
}

func keyGroupScan(group directory.GroupID) []byte {
	return []byte(prefixGroup + string(group) + ":")
}

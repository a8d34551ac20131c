package badgerstore

import (
	"encoding/json"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mlohr/groupdrive/pkg/directory"
)

// directoryRow is the JSON shape of a persisted directory.
type directoryRow struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ParentID        *string   `json:"parent_id,omitempty"`
	GroupOwner      string    `json:"group_owner"`
	PermissionSetID string    `json:"permission_set_id"`
	CreatedAt       time.Time `json:"created_at"`
}

func rowFromDirectory(dir *directory.Directory) *directoryRow {
	row := &directoryRow{
		ID:              string(dir.ID),
		Name:            dir.Name,
		GroupOwner:      string(dir.GroupOwner),
		PermissionSetID: string(dir.PermissionSetID),
		CreatedAt:       dir.CreatedAt,
	}
	if dir.ParentID != nil {
		parent := string(*dir.ParentID)
		row.ParentID = &parent
	}
	return row
}

func (row *directoryRow) toDirectory() *directory.Directory {
	dir := &directory.Directory{
		ID:              directory.DirectoryID(row.ID),
		Name:            row.Name,
		GroupOwner:      directory.GroupID(row.GroupOwner),
		PermissionSetID: directory.PermissionSetID(row.PermissionSetID),
		CreatedAt:       row.CreatedAt,
	}
	if row.ParentID != nil {
		parent := directory.DirectoryID(*row.ParentID)
		dir.ParentID = &parent
	}
	return dir
}

// permSetRow is the JSON shape of a persisted permission set.
type permSetRow struct {
	ID      string         `json:"id"`
	Entries []permEntryRow `json:"entries"`
}

type permEntryRow struct {
	Role      string `json:"role"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
	CanDelete bool   `json:"can_delete"`
}

func rowFromPermSet(set *directory.PermissionSet) *permSetRow {
	row := &permSetRow{ID: string(set.ID), Entries: make([]permEntryRow, 0, len(set.Entries))}
	for _, entry := range set.Entries {
		row.Entries = append(row.Entries, permEntryRow(entry))
	}
	return row
}

func (row *permSetRow) toPermSet() *directory.PermissionSet {
	set := &directory.PermissionSet{
		ID:      directory.PermissionSetID(row.ID),
		Entries: make([]directory.PermissionEntry, 0, len(row.Entries)),
	}
	for _, entry := range row.Entries {
		set.Entries = append(set.Entries, directory.PermissionEntry(entry))
	}
	return set
}

func storageError(op string, err error) error {
	return &directory.StoreError{
		Code:    directory.ErrStorage,
		Message: op + ": " + err.Error(),
	}
}

// transaction implements directory.ReadTx and directory.Tx over one
// badger transaction.
type transaction struct {
	txn *badger.Txn
}

func (t *transaction) getJSON(key []byte, out any) (bool, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageError("get", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
	if err != nil {
		return false, storageError("decode", err)
	}
	return true, nil
}

func (t *transaction) setJSON(key []byte, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return storageError("encode", err)
	}
	if err := t.txn.Set(key, raw); err != nil {
		return storageError("set", err)
	}
	return nil
}

func (t *transaction) GetDirectory(id directory.DirectoryID) (*directory.Directory, error) {
	var row directoryRow
	found, err := t.getJSON(keyDirectory(id), &row)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "directory not found",
			Path:    string(id),
		}
	}
	return row.toDirectory(), nil
}

func (t *transaction) ChildrenOf(parent directory.DirectoryID) ([]*directory.Directory, error) {
	prefix := keyChildScan(parent)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	var ids []directory.DirectoryID
	it := t.txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		key := it.Item().Key()
		ids = append(ids, directory.DirectoryID(key[len(prefix):]))
	}

	children := make([]*directory.Directory, 0, len(ids))
	for _, id := range ids {
		child, err := t.GetDirectory(id)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func (t *transaction) RootOf(group directory.GroupID) (*directory.Directory, error) {
	item, err := t.txn.Get(keyRoot(group))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "group has no root directory",
			Path:    string(group),
		}
	}
	if err != nil {
		return nil, storageError("get root", err)
	}
	var id directory.DirectoryID
	err = item.Value(func(val []byte) error {
		id = directory.DirectoryID(val)
		return nil
	})
	if err != nil {
		return nil, storageError("read root", err)
	}
	return t.GetDirectory(id)
}

func (t *transaction) CountInGroup(group directory.GroupID) (int, error) {
	prefix := keyGroupScan(group)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	count := 0
	it := t.txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		count++
	}
	return count, nil
}

func (t *transaction) GetPermissionSet(id directory.PermissionSetID) (*directory.PermissionSet, error) {
	var row permSetRow
	found, err := t.getJSON(keyPermSet(id), &row)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &directory.StoreError{
			Code:    directory.ErrNotFound,
			Message: "permission set not found",
			Path:    string(id),
		}
	}
	return row.toPermSet(), nil
}

func (t *transaction) CreateDirectory(dir *directory.Directory) (*directory.Directory, error) {
	if err := t.validateNewDirectory(dir); err != nil {
		return nil, err
	}

	created := *dir
	created.ID = directory.DirectoryID(uuid.NewString())
	created.CreatedAt = time.Now()

	if err := t.setJSON(keyDirectory(created.ID), rowFromDirectory(&created)); err != nil {
		return nil, err
	}
	if err := t.setRawKeys(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (t *transaction) setRawKeys(dir *directory.Directory) error {
	if dir.ParentID == nil {
		if err := t.txn.Set(keyRoot(dir.GroupOwner), []byte(dir.ID)); err != nil {
			return storageError("set root", err)
		}
	} else {
		if err := t.txn.Set(keyChild(*dir.ParentID, dir.ID), nil); err != nil {
			return storageError("set child edge", err)
		}
	}
	if err := t.txn.Set(keyGroupMember(dir.GroupOwner, dir.ID), nil); err != nil {
		return storageError("set group member", err)
	}
	return nil
}

func (t *transaction) validateNewDirectory(dir *directory.Directory) error {
	if dir.GroupOwner == "" {
		return &directory.StoreError{
			Code:    directory.ErrInvalidArgument,
			Message: "directory has no group owner",
		}
	}
	if dir.PermissionSetID == "" {
		return &directory.StoreError{
			Code:    directory.ErrInvalidArgument,
			Message: "directory has no permission set",
		}
	}
	if _, err := t.GetPermissionSet(dir.PermissionSetID); err != nil {
		return err
	}

	if dir.ParentID == nil {
		_, err := t.txn.Get(keyRoot(dir.GroupOwner))
		if err == nil {
			return &directory.StoreError{
				Code:    directory.ErrAlreadyExists,
				Message: "group already has a root directory",
				Path:    string(dir.GroupOwner),
			}
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return storageError("check root", err)
		}
		return nil
	}

	if dir.Name == "" {
		return &directory.StoreError{
			Code:    directory.ErrInvalidName,
			Message: "non-root directory must have a name",
		}
	}
	parent, err := t.GetDirectory(*dir.ParentID)
	if err != nil {
		return err
	}
	if parent.GroupOwner != dir.GroupOwner {
		return &directory.StoreError{
			Code:    directory.ErrInvalidArgument,
			Message: "directory group differs from parent group",
		}
	}
	return nil
}

func (t *transaction) SaveDirectory(dir *directory.Directory) error {
	if _, err := t.GetDirectory(dir.ID); err != nil {
		return err
	}
	return t.setJSON(keyDirectory(dir.ID), rowFromDirectory(dir))
}

func (t *transaction) DeleteDirectory(id directory.DirectoryID) error {
	dir, err := t.GetDirectory(id)
	if err != nil {
		return err
	}

	children, err := t.ChildrenOf(id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return &directory.StoreError{
			Code:    directory.ErrNotEmpty,
			Message: "directory still has subdirectories",
			Path:    string(id),
		}
	}

	if err := t.txn.Delete(keyDirectory(id)); err != nil {
		return storageError("delete directory", err)
	}
	if dir.ParentID == nil {
		if err := t.txn.Delete(keyRoot(dir.GroupOwner)); err != nil {
			return storageError("delete root", err)
		}
	} else {
		if err := t.txn.Delete(keyChild(*dir.ParentID, id)); err != nil {
			return storageError("delete child edge", err)
		}
	}
	if err := t.txn.Delete(keyGroupMember(dir.GroupOwner, id)); err != nil {
		return storageError("delete group member", err)
	}
	return nil
}

func (t *transaction) CreatePermissionSet(entries []directory.PermissionEntry) (*directory.PermissionSet, error) {
	normalized, err := directory.NormalizeEntries(entries)
	if err != nil {
		return nil, err
	}
	set := &directory.PermissionSet{
		ID:      directory.PermissionSetID(uuid.NewString()),
		Entries: normalized,
	}
	if err := t.setJSON(keyPermSet(set.ID), rowFromPermSet(set)); err != nil {
		return nil, err
	}
	return set, nil
}

func (t *transaction) ReplacePermissionSet(id directory.PermissionSetID, entries []directory.PermissionEntry) (*directory.PermissionSet, error) {
	if _, err := t.GetPermissionSet(id); err != nil {
		return nil, err
	}
	normalized, err := directory.NormalizeEntries(entries)
	if err != nil {
		return nil, err
	}
	set := &directory.PermissionSet{ID: id, Entries: normalized}
	if err := t.setJSON(keyPermSet(id), rowFromPermSet(set)); err != nil {
		return nil, err
	}
	return set, nil
}

func (t *transaction) DeletePermissionSet(id directory.PermissionSetID) error {
	if _, err := t.GetPermissionSet(id); err != nil {
		return err
	}
	if err := t.txn.Delete(keyPermSet(id)); err != nil {
		return storageError("delete permission set", err)
	}
	return nil
}

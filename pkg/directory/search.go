package directory

import (
	"context"

	"github.com/mlohr/groupdrive/pkg/directory/query"
)

// Search walks the subtree rooted at dirID depth-first and returns every
// file whose metadata matches the query, a directory's own matches before
// its descendants'. No further ordering is guaranteed; callers that need
// a stable order sort the result themselves.
//
// The actor needs the read capability on every directory the walk enters.
// Permission sets can diverge at branch points, so each directory is
// re-checked; a descendant that denies the actor read aborts the whole
// search with ErrReadDenied rather than returning partial results.
//
// The whole traversal runs inside one read transaction, so a concurrent
// delete cannot make a parent vanish mid-walk.
func (s *Service) Search(ctx context.Context, actor string, dirID DirectoryID, q *query.Query) ([]*File, error) {
	roles := s.newRoleCache(actor)
	var matches []*File
	err := s.store.View(ctx, func(tx ReadTx) error {
		dir, err := tx.GetDirectory(dirID)
		if err != nil {
			return err
		}
		return s.searchDir(ctx, tx, roles, dir, q, &matches)
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *Service) searchDir(ctx context.Context, tx ReadTx, roles *roleCache, dir *Directory, q *query.Query, matches *[]*File) error {
	if err := requireCapability(ctx, tx, roles, dir, CapabilityRead); err != nil {
		return err
	}

	contained, err := s.files.FilesIn(ctx, dir.ID)
	if err != nil {
		return err
	}
	for _, file := range contained {
		if q.Matches(file.Name, file.Owner, file.Type, file.Tags) {
			*matches = append(*matches, file)
		}
	}

	children, err := tx.ChildrenOf(dir.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.searchDir(ctx, tx, roles, child, q, matches); err != nil {
			return err
		}
	}
	return nil
}

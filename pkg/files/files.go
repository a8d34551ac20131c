// Package files provides an in-process file-metadata catalog implementing
// the engine's FileCatalog interface. File content lives in a blob store
// the engine never touches; this catalog only tracks the searchable
// attributes per directory.
package files

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mlohr/groupdrive/pkg/directory"
)

// Catalog is a thread-safe in-memory file-metadata catalog.
type Catalog struct {
	mu    sync.RWMutex
	byDir map[directory.DirectoryID]map[string]*directory.File
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byDir: make(map[directory.DirectoryID]map[string]*directory.File)}
}

// Add records a file's metadata and assigns its ID. The returned copy is
// detached from the catalog's internal state.
func (c *Catalog) Add(file directory.File) *directory.File {
	file.ID = uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	dir, ok := c.byDir[file.DirectoryID]
	if !ok {
		dir = make(map[string]*directory.File)
		c.byDir[file.DirectoryID] = dir
	}
	stored := cloneFile(&file)
	dir[file.ID] = stored
	return cloneFile(stored)
}

// Remove drops a single file by id. Unknown ids are a no-op.
func (c *Catalog) Remove(dirID directory.DirectoryID, fileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dir, ok := c.byDir[dirID]; ok {
		delete(dir, fileID)
		if len(dir) == 0 {
			delete(c.byDir, dirID)
		}
	}
}

// FilesIn implements directory.FileCatalog.
func (c *Catalog) FilesIn(_ context.Context, dirID directory.DirectoryID) ([]*directory.File, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dir, ok := c.byDir[dirID]
	if !ok {
		return nil, nil
	}
	result := make([]*directory.File, 0, len(dir))
	for _, file := range dir {
		result = append(result, cloneFile(file))
	}
	return result, nil
}

// RemoveFilesIn implements directory.FileCatalog.
func (c *Catalog) RemoveFilesIn(_ context.Context, dirID directory.DirectoryID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byDir, dirID)
	return nil
}

func cloneFile(file *directory.File) *directory.File {
	copied := *file
	copied.Tags = append([]string(nil), file.Tags...)
	return &copied
}

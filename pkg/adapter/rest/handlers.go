package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/mlohr/groupdrive/pkg/directory/query"
)

type directoryDTO struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ParentID        *string   `json:"parent_id,omitempty"`
	GroupOwner      string    `json:"group_owner"`
	PermissionSetID string    `json:"permission_set_id"`
	CreatedAt       time.Time `json:"created_at"`
}

func toDirectoryDTO(dir *directory.Directory) directoryDTO {
	dto := directoryDTO{
		ID:              string(dir.ID),
		Name:            dir.Name,
		GroupOwner:      string(dir.GroupOwner),
		PermissionSetID: string(dir.PermissionSetID),
		CreatedAt:       dir.CreatedAt,
	}
	if dir.ParentID != nil {
		parent := string(*dir.ParentID)
		dto.ParentID = &parent
	}
	return dto
}

func toDirectoryDTOs(dirs []*directory.Directory) []directoryDTO {
	dtos := make([]directoryDTO, 0, len(dirs))
	for _, dir := range dirs {
		dtos = append(dtos, toDirectoryDTO(dir))
	}
	return dtos
}

type permissionEntryDTO struct {
	Role      string `json:"role"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
	CanDelete bool   `json:"can_delete"`
}

type permissionSetDTO struct {
	ID      string               `json:"id"`
	Entries []permissionEntryDTO `json:"entries"`
}

func toPermissionSetDTO(set *directory.PermissionSet) permissionSetDTO {
	dto := permissionSetDTO{ID: string(set.ID), Entries: make([]permissionEntryDTO, 0, len(set.Entries))}
	for _, entry := range set.Entries {
		dto.Entries = append(dto.Entries, permissionEntryDTO(entry))
	}
	return dto
}

type fileDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DirectoryID string   `json:"directory_id"`
	Type        string   `json:"type"`
	Owner       string   `json:"owner"`
	Tags        []string `json:"tags,omitempty"`
}

func toFileDTOs(matches []*directory.File) []fileDTO {
	dtos := make([]fileDTO, 0, len(matches))
	for _, file := range matches {
		dtos = append(dtos, fileDTO{
			ID:          file.ID,
			Name:        file.Name,
			DirectoryID: string(file.DirectoryID),
			Type:        file.Type,
			Owner:       file.Owner,
			Tags:        file.Tags,
		})
	}
	return dtos
}

func (s *Server) handleGetOrCreateRoot(w http.ResponseWriter, r *http.Request) {
	group := directory.GroupID(chi.URLParam(r, "group"))
	root, err := s.service.GetOrCreateRoot(r.Context(), group)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDirectoryDTO(root))
}

type createFolderRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &directory.StoreError{
			Code:    directory.ErrInvalidArgument,
			Message: "invalid request body",
		})
		return
	}
	parentID := directory.DirectoryID(chi.URLParam(r, "id"))
	created, err := s.service.CreateFolder(r.Context(), a, parentID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDirectoryDTO(created))
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}
	dirID := directory.DirectoryID(chi.URLParam(r, "id"))

	var parent *directory.Directory
	var err error
	if r.URL.Query().Get("recursive") == "true" {
		parent, err = s.service.DeleteFolderRecursive(r.Context(), a, dirID)
	} else {
		parent, err = s.service.DeleteFolder(r.Context(), a, dirID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if parent == nil {
		// A group root was deleted; there is no parent to report.
		writeJSON(w, http.StatusNoContent, nil)
		return
	}
	writeJSON(w, http.StatusOK, toDirectoryDTO(parent))
}

func (s *Server) handleGetSubFolders(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}
	dirID := directory.DirectoryID(chi.URLParam(r, "id"))
	children, err := s.service.GetSubFolders(r.Context(), a, dirID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDirectoryDTOs(children))
}

func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	dirID := directory.DirectoryID(chi.URLParam(r, "id"))
	path, err := s.service.GetDirectoryPath(r.Context(), dirID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDirectoryDTOs(path))
}

func (s *Server) handleGetPermissions(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}
	dirID := directory.DirectoryID(chi.URLParam(r, "id"))
	set, err := s.service.GetPermissions(r.Context(), a, dirID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionSetDTO(set))
}

type updatePermissionsRequest struct {
	Entries []permissionEntryDTO `json:"entries"`
}

func (s *Server) handleUpdatePermissions(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}
	var req updatePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &directory.StoreError{
			Code:    directory.ErrInvalidArgument,
			Message: "invalid request body",
		})
		return
	}
	entries := make([]directory.PermissionEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, directory.PermissionEntry(entry))
	}
	dirID := directory.DirectoryID(chi.URLParam(r, "id"))
	set, err := s.service.UpdatePermission(r.Context(), a, dirID, entries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionSetDTO(set))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		writeUnauthenticated(w)
		return
	}
	dirID := directory.DirectoryID(chi.URLParam(r, "id"))
	q := query.Parse(r.URL.Query().Get("q"))
	matches, err := s.service.Search(r.Context(), a, dirID, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileDTOs(matches))
}

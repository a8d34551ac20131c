package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlohr/groupdrive/pkg/directory"
	"github.com/mlohr/groupdrive/pkg/directory/memory"
	"github.com/mlohr/groupdrive/pkg/files"
	"github.com/mlohr/groupdrive/pkg/groups"
)

type fixture struct {
	server  *Server
	service *directory.Service
	catalog *files.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	registry := groups.NewRegistry()
	registry.AddGroup("lectures", "admin", "member", "guest")
	registry.SetMember("lectures", "bob", "admin")
	registry.SetMember("lectures", "alice", "member")

	catalog := files.NewCatalog()
	service := directory.NewService(store, registry, catalog, directory.Config{})

	return &fixture{
		server:  NewServer(service),
		service: service,
		catalog: catalog,
	}
}

func (f *fixture) do(t *testing.T, method, target, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if actor != "" {
		req.Header.Set("X-Actor", actor)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeDirectory(t *testing.T, rec *httptest.ResponseRecorder) directoryDTO {
	t.Helper()
	var dto directoryDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
	return dto
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func (f *fixture) createRoot(t *testing.T) directoryDTO {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/groups/lectures/root", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeDirectory(t, rec)
}

func (f *fixture) createFolder(t *testing.T, parentID, actor, name string) directoryDTO {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/directories/"+parentID+"/folders", actor,
		`{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeDirectory(t, rec)
}

func TestGetOrCreateRoot(t *testing.T) {
	f := newFixture(t)

	first := f.createRoot(t)
	require.NotEmpty(t, first.ID)
	require.Nil(t, first.ParentID)
	require.Equal(t, "lectures", first.GroupOwner)

	// Idempotent: the same root comes back.
	second := f.createRoot(t)
	require.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateRootUnknownGroup(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/groups/nobody/root", "", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "unknown_group", decodeError(t, rec).Code)
}

func TestCreateFolder(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)

	created := f.createFolder(t, root.ID, "bob", "projects")
	require.Equal(t, "projects", created.Name)
	require.NotNil(t, created.ParentID)
	require.Equal(t, root.ID, *created.ParentID)
	require.NotEqual(t, root.PermissionSetID, created.PermissionSetID)
}

func TestCreateFolderRequiresActor(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)

	rec := f.do(t, http.MethodPost, "/directories/"+root.ID+"/folders", "",
		`{"name":"projects"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", decodeError(t, rec).Code)
}

func TestCreateFolderDenied(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)

	// guests get read-only defaults at bootstrap; eve is not a member at all
	rec := f.do(t, http.MethodPost, "/directories/"+root.ID+"/folders", "eve",
		`{"name":"projects"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "write_denied", decodeError(t, rec).Code)
}

func TestCreateFolderBadBody(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)

	rec := f.do(t, http.MethodPost, "/directories/"+root.ID+"/folders", "bob", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_argument", decodeError(t, rec).Code)
}

func TestCreateFolderEmptyName(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)

	rec := f.do(t, http.MethodPost, "/directories/"+root.ID+"/folders", "bob",
		`{"name":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_name", decodeError(t, rec).Code)
}

func TestDeleteFolder(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)
	branch := f.createFolder(t, root.ID, "bob", "projects")

	rec := f.do(t, http.MethodDelete, "/directories/"+branch.ID, "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, root.ID, decodeDirectory(t, rec).ID)

	rec = f.do(t, http.MethodGet, "/directories/"+branch.ID+"/path", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFolderNotEmpty(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)
	branch := f.createFolder(t, root.ID, "bob", "projects")
	f.createFolder(t, branch.ID, "bob", "archive")

	rec := f.do(t, http.MethodDelete, "/directories/"+branch.ID, "bob", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "not_empty", decodeError(t, rec).Code)
}

func TestDeleteFolderRecursive(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)
	branch := f.createFolder(t, root.ID, "bob", "projects")
	leaf := f.createFolder(t, branch.ID, "bob", "archive")
	f.catalog.Add(directory.File{
		Name:        "report.pdf",
		DirectoryID: directory.DirectoryID(leaf.ID),
		Type:        "application/pdf",
		Owner:       "bob",
	})

	rec := f.do(t, http.MethodDelete, "/directories/"+branch.ID+"?recursive=true", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, root.ID, decodeDirectory(t, rec).ID)

	rec = f.do(t, http.MethodGet, "/directories/"+leaf.ID+"/path", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRootReturnsNoContent(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)

	rec := f.do(t, http.MethodDelete, "/directories/"+root.ID, "bob", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, rec.Body.Len())
}

func TestGetSubFolders(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)
	f.createFolder(t, root.ID, "bob", "projects")
	f.createFolder(t, root.ID, "bob", "lectures")

	rec := f.do(t, http.MethodGet, "/directories/"+root.ID+"/folders", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var children []directoryDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&children))
	require.Len(t, children, 2)
}

func TestGetPath(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)
	branch := f.createFolder(t, root.ID, "bob", "projects")
	leaf := f.createFolder(t, branch.ID, "bob", "archive")

	rec := f.do(t, http.MethodGet, "/directories/"+leaf.ID+"/path", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var path []directoryDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&path))
	require.Len(t, path, 3)
	require.Equal(t, root.ID, path[0].ID)
	require.Equal(t, branch.ID, path[1].ID)
	require.Equal(t, leaf.ID, path[2].ID)
}

func TestPermissionsRoundTrip(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)
	branch := f.createFolder(t, root.ID, "bob", "projects")

	rec := f.do(t, http.MethodPut, "/directories/"+branch.ID+"/permissions", "bob",
		`{"entries":[
			{"role":"admin","can_read":true,"can_write":true,"can_delete":true},
			{"role":"member","can_read":true,"can_write":true,"can_delete":false}
		]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated permissionSetDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	require.Equal(t, branch.PermissionSetID, updated.ID)

	rec = f.do(t, http.MethodGet, "/directories/"+branch.ID+"/permissions", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched permissionSetDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fetched))
	require.Equal(t, updated, fetched)
}

func TestUpdatePermissionsNotAdmin(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)

	rec := f.do(t, http.MethodPut, "/directories/"+root.ID+"/permissions", "alice",
		`{"entries":[{"role":"member","can_read":true,"can_write":true,"can_delete":true}]}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_admin", decodeError(t, rec).Code)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	root := f.createRoot(t)
	branch := f.createFolder(t, root.ID, "bob", "projects")
	f.catalog.Add(directory.File{
		Name:        "report.pdf",
		DirectoryID: directory.DirectoryID(branch.ID),
		Type:        "application/pdf",
		Owner:       "bob",
		Tags:        []string{"quarterly"},
	})
	f.catalog.Add(directory.File{
		Name:        "notes.txt",
		DirectoryID: directory.DirectoryID(branch.ID),
		Type:        "text/plain",
		Owner:       "alice",
	})

	rec := f.do(t, http.MethodGet,
		"/directories/"+root.ID+"/search?q=type%3Aapplication%2Fpdf", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var matches []fileDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&matches))
	require.Len(t, matches, 1)
	require.Equal(t, "report.pdf", matches[0].Name)
	require.Equal(t, []string{"quarterly"}, matches[0].Tags)
}

func TestSearchUnknownDirectory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/directories/nope/search?q=foo", "alice", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decodeError(t, rec).Code)
}

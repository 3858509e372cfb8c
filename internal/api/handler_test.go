package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "adlens/internal/db"
	"adlens/internal/db/repository"
	"adlens/internal/domain"
	"adlens/internal/service"
)

type fakeDirectory struct {
	objects  map[string]*domain.DirectoryObject
	memberOf map[string][]string
	members  map[string][]domain.MemberRef
}

func (f *fakeDirectory) ResolveObject(_ context.Context, identity string) (*domain.DirectoryObject, error) {
	for _, obj := range f.objects {
		if obj.DN == identity || obj.SAMAccountName == identity {
			return obj, nil
		}
	}
	return nil, domain.ErrNotFound("no directory object matches %q", identity)
}

func (f *fakeDirectory) GetMembershipsOf(_ context.Context, dn string) ([]string, error) {
	return f.memberOf[dn], nil
}

func (f *fakeDirectory) GetMembersOf(_ context.Context, groupDN string) ([]domain.MemberRef, error) {
	return f.members[groupDN], nil
}

func (f *fakeDirectory) GetAttributes(_ context.Context, dn string, _ domain.ObjectKind) (*domain.DirectoryObject, error) {
	if obj, ok := f.objects[dn]; ok {
		return obj, nil
	}
	return nil, domain.ErrLookup("attributes of %q unavailable", dn)
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	recent := time.Now().Add(-24 * time.Hour)
	dir := &fakeDirectory{
		objects: map[string]*domain.DirectoryObject{
			"cn=alice":  {DN: "cn=alice", Kind: domain.KindUser, Name: "Alice", SAMAccountName: "alice", Enabled: true, LastActivity: &recent},
			"cn=staff":  {DN: "cn=staff", Kind: domain.KindGroup, Name: "Staff", SAMAccountName: "staff"},
			"cn=admins": {DN: "cn=admins", Kind: domain.KindGroup, Name: "Admins", SAMAccountName: "admins"},
		},
		memberOf: map[string][]string{
			"cn=alice": {"cn=staff"},
			"cn=staff": {"cn=admins"},
		},
		members: map[string][]domain.MemberRef{
			"cn=admins": {{DN: "cn=staff", Kind: domain.KindGroup}},
			"cn=staff":  {{DN: "cn=alice", Kind: domain.KindUser}},
		},
	}

	writeDB, _ := internaldb.OpenTestSQLite(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewAuditService(dir, repository.NewAuditRepo(writeDB), logger)

	r := chi.NewRouter()
	NewHandler(svc, TraversalDefaults{InactiveDays: 90}, logger).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	srv := setupServer(t)
	var body map[string]string
	code := getJSON(t, srv, "/healthz", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestGetMemberships(t *testing.T) {
	srv := setupServer(t)

	var body membershipsResponse
	code := getJSON(t, srv, "/api/v1/memberships/alice", &body)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "cn=alice", body.Root.DN)
	require.Len(t, body.Groups, 2)
	// Sorted by display name: Admins, Staff.
	assert.Equal(t, "cn=admins", body.Groups[0].DN)
	assert.Equal(t, []string{"Staff"}, body.Groups[0].ReachedVia)
	assert.Equal(t, "cn=staff", body.Groups[1].DN)
	assert.Equal(t, []string{"Alice"}, body.Groups[1].ReachedVia)
	assert.NotEmpty(t, body.RunID)
	assert.False(t, body.Truncated)
}

func TestGetMemberships_NotFound(t *testing.T) {
	srv := setupServer(t)

	var body errorResponse
	code := getJSON(t, srv, "/api/v1/memberships/ghost", &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body.Message, "ghost")
}

func TestGetMembers_Nested(t *testing.T) {
	srv := setupServer(t)

	var body membersResponse
	code := getJSON(t, srv, "/api/v1/members/admins", &body)
	require.Equal(t, http.StatusOK, code)

	require.Len(t, body.Members, 2)
	assert.Equal(t, "cn=staff", body.Members[0].DN)
	assert.Equal(t, 0, body.Members[0].Depth)
	assert.True(t, body.Members[0].Nested)
	assert.Equal(t, "cn=alice", body.Members[1].DN)
	assert.Equal(t, 1, body.Members[1].Depth)
	assert.Equal(t, "cn=staff", body.Members[1].SourceGroup)
}

func TestGetMembers_NestedDisabled(t *testing.T) {
	srv := setupServer(t)

	var body membersResponse
	code := getJSON(t, srv, "/api/v1/members/admins?nested=false", &body)
	require.Equal(t, http.StatusOK, code)

	require.Len(t, body.Members, 1)
	assert.Equal(t, "cn=staff", body.Members[0].DN)
}

func TestGetMembers_NotAGroup(t *testing.T) {
	srv := setupServer(t)
	code := getJSON(t, srv, "/api/v1/members/alice", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRunsEndpoints(t *testing.T) {
	srv := setupServer(t)

	var memberships membershipsResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/memberships/alice", &memberships))
	require.NotEmpty(t, memberships.RunID)

	var list struct {
		Runs []runJSON `json:"runs"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/runs", &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, memberships.RunID, list.Runs[0].ID)
	assert.Equal(t, domain.RunStatusCompleted, list.Runs[0].Status)

	var detail runDetailResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/api/v1/runs/"+memberships.RunID, &detail))
	assert.Equal(t, domain.DirectionAncestor, detail.Direction)
	assert.Len(t, detail.Findings, 2)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv, "/api/v1/runs/nope", nil))
}

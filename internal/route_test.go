package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmesh/gitmesh/internal/handler"
	"github.com/gitmesh/gitmesh/internal/util"
	"github.com/gitmesh/gitmesh/pkg/config"
	"github.com/gitmesh/gitmesh/pkg/crypto"
	"github.com/gitmesh/gitmesh/pkg/db/activity"
	"github.com/gitmesh/gitmesh/pkg/db/collaborator"
	"github.com/gitmesh/gitmesh/pkg/db/dbtest"
	"github.com/gitmesh/gitmesh/pkg/db/network"
	"github.com/gitmesh/gitmesh/pkg/db/peer"
	"github.com/gitmesh/gitmesh/pkg/db/repository"
	"github.com/gitmesh/gitmesh/pkg/db/tag"
	"github.com/gitmesh/gitmesh/pkg/db/user"
	"github.com/gitmesh/gitmesh/pkg/relay"
	"github.com/gitmesh/gitmesh/pkg/storage"
)

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

type testServer struct {
	t *testing.T
	h http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := dbtest.Open(t)
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	// One real key pair keeps fingerprints meaningful without paying for RSA on every register.
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	conf := config.Default()
	users := user.NewDBService(gdb)
	repos := repository.NewDBService(gdb, store)
	peers := peer.NewDBService(gdb)
	rc := &handler.RegisterConfig{
		Config:        conf,
		TokenMgr:      util.NewTokenManager(config.NewTokenConf(conf)),
		Users:         users,
		Repositories:  repos,
		Collaborators: collaborator.NewDBService(gdb),
		Tags:          tag.NewDBService(gdb),
		Peers:         peers,
		Activities:    activity.NewDBService(gdb),
		Network:       network.NewAggregator(users, repos, peers),
		KeyGen:        func() (string, string, error) { return pub, priv, nil },
		Relay:         relay.New(peers, crypto.NewVerifier(), logr.Discard()),
	}
	return &testServer{t: t, h: Register(rc).R}
}

func (s *testServer) do(method, path string, body any, cookie *http.Cookie) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) register(username string) {
	s.t.Helper()
	rec, _ := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": username, "password": "password123", "displayName": strings.ToUpper(username),
	}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(username string) *http.Cookie {
	s.t.Helper()
	rec, _ := s.do(http.MethodPost, "/api/auth/login", gin.H{
		"username": username, "password": "password123",
	}, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == "gitmesh_session" {
			return c
		}
	}
	s.t.Fatalf("no session cookie for %s", username)
	return nil
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "password": "password123", "displayName": "Alice",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, string(env.Data), "password")
	assert.NotContains(t, string(env.Data), "privateKey")
	u := decode[map[string]any](t, env)
	assert.Equal(t, "alice", u["username"])
	assert.True(t, strings.HasPrefix(u["keyFingerprint"].(string), "SHA256:"))
	assert.Contains(t, u["publicKey"], "BEGIN PUBLIC KEY")

	rec, _ = s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice", "password": "password456", "displayName": "Other",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "bo", "password": "short", "displayName": "B",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice", "password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env.Msg)

	rec, _ = s.do(http.MethodGet, "/api/auth/session", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := s.login("alice")
	assert.True(t, cookie.HttpOnly)
	rec, env = s.do(http.MethodGet, "/api/auth/session", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[map[string]any](t, env)["username"])

	rec, env = s.do(http.MethodPut, "/api/users/current", gin.H{"displayName": "Alice L."}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Alice L.", decode[map[string]any](t, env)["displayName"])
}

func TestBearerToken(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	_, env := s.do(http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "password123"}, nil)
	token := decode[map[string]any](t, env)["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/users/current", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s := newTestServer(t)
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/repositories"},
		{http.MethodPut, "/api/repositories/1"},
		{http.MethodDelete, "/api/repositories/1"},
		{http.MethodPost, "/api/repositories/1/collaborators"},
		{http.MethodPost, "/api/repositories/1/tags"},
		{http.MethodPost, "/api/activities"},
		{http.MethodGet, "/api/users/current"},
	} {
		rec, env := s.do(r.method, r.path, gin.H{}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
		assert.Equal(t, "Unauthorized", env.Msg, r.path)
	}
}

func TestRepositoryVisibilityAndOwnership(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")
	s.register("bobby")
	alice := s.login("alice")
	bobby := s.login("bobby")

	rec, env := s.do(http.MethodPost, "/api/repositories", gin.H{
		"name": "demo", "description": "private demo", "isPublic": false,
	}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	demo := decode[map[string]any](t, env)
	assert.Equal(t, false, demo["isPublic"])
	id := uint(demo["id"].(float64))

	rec, env = s.do(http.MethodPost, "/api/repositories", gin.H{"name": "open"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, env)["isPublic"])

	names := func(cookie *http.Cookie) []string {
		_, env := s.do(http.MethodGet, "/api/repositories", nil, cookie)
		var out []string
		for _, r := range decode[[]map[string]any](t, env) {
			out = append(out, r["name"].(string))
		}
		return out
	}
	assert.NotContains(t, names(nil), "demo")
	assert.NotContains(t, names(bobby), "demo")
	assert.Contains(t, names(alice), "demo")
	assert.Contains(t, names(nil), "open")

	path := fmt.Sprintf("/api/repositories/%d", id)
	rec, _ = s.do(http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(http.MethodGet, path, nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPut, path, gin.H{"name": "stolen"}, bobby)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(http.MethodDelete, path, nil, bobby)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(http.MethodPost, path+"/collaborators", gin.H{"userId": 2, "permission": "write"}, bobby)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(http.MethodPost, path+"/tags", gin.H{"tagName": "p2p"}, bobby)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPut, path, gin.H{"isPublic": true}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, env)["isPublic"])
	assert.Contains(t, names(nil), "demo")

	rec, _ = s.do(http.MethodDelete, path, nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodGet, path, nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTagsAndCollaborators(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")
	s.register("bobby")
	alice := s.login("alice")

	_, env := s.do(http.MethodPost, "/api/repositories", gin.H{"name": "mesh"}, alice)
	path := fmt.Sprintf("/api/repositories/%d", uint(decode[map[string]any](t, env)["id"].(float64)))

	for range 2 {
		rec, _ := s.do(http.MethodPost, path+"/tags", gin.H{"tagName": "p2p"}, alice)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	_, env = s.do(http.MethodGet, path+"/tags", nil, nil)
	assert.Len(t, decode[[]map[string]any](t, env), 1)
	_, env = s.do(http.MethodGet, "/api/tags", nil, nil)
	assert.Len(t, decode[[]map[string]any](t, env), 1)

	rec, _ := s.do(http.MethodPost, path+"/collaborators", gin.H{"userId": 2, "permission": "owner"}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(http.MethodPost, path+"/collaborators", gin.H{"userId": 2, "permission": "write"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, env = s.do(http.MethodGet, path+"/collaborators", nil, nil)
	collaborators := decode[[]map[string]any](t, env)
	require.Len(t, collaborators, 1)
	assert.Equal(t, "write", collaborators[0]["permission"])
	assert.NotContains(t, string(env.Data), "password")

	rec, _ = s.do(http.MethodDelete, path+"/collaborators/2", nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodDelete, path+"/collaborators/2", nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActivitiesAndNetworkStats(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")
	s.register("bobby")
	alice := s.login("alice")

	_, env := s.do(http.MethodPost, "/api/repositories", gin.H{"name": "mesh"}, alice)
	repoID := uint(decode[map[string]any](t, env)["id"].(float64))

	rec, _ := s.do(http.MethodPost, "/api/activities", gin.H{
		"repositoryId": repoID, "type": "commit", "payload": gin.H{"message": "init"},
	}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, env = s.do(http.MethodGet, fmt.Sprintf("/api/activities/repository/%d", repoID), nil, nil)
	acts := decode[[]map[string]any](t, env)
	require.Len(t, acts, 2)
	assert.Equal(t, "commit", acts[0]["type"])
	assert.Equal(t, "create_repository", acts[1]["type"])

	_, env = s.do(http.MethodGet, "/api/activities/user/1?limit=1", nil, nil)
	assert.Len(t, decode[[]map[string]any](t, env), 1)

	rec, env = s.do(http.MethodGet, "/api/network/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[network.Stats](t, env)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.TotalRepositories)
	assert.EqualValues(t, 0, stats.ActivePeers)

	rec, env = s.do(http.MethodGet, "/api/peers", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]map[string]any](t, env))
}

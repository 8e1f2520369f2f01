package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/keywarden/api"
	"github.com/jmcleod/keywarden/storage"
	bboltstorage "github.com/jmcleod/keywarden/storage/bbolt"
	"github.com/jmcleod/keywarden/storage/memory"
	"github.com/jmcleod/keywarden/vault"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	return setupServerWithRepo(t, memory.NewRepository())
}

func setupServerWithRepo(t *testing.T, repo storage.Repository) *httptest.Server {
	t.Helper()
	cfg := api.Config{JWTSecret: "test-secret", TokenTTL: time.Hour}
	a := api.New(repo, cfg, api.WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))))
	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	return httptest.NewServer(r)
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func testParams() api.ParamsPayload {
	salt := bytes.Repeat([]byte{0xA5}, 32)
	return api.ParamsPayload{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Iterations: 210_000,
	}
}

func testAuthTag() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))
}

func register(t *testing.T, baseURL, username string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/register", "", api.RegisterRequest{
		Username: username,
		Params:   testParams(),
		AuthTag:  testAuthTag(),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func login(t *testing.T, baseURL, username string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/login", "", api.LoginRequest{
		Username: username,
		AuthTag:  testAuthTag(),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestAuthRegisterAndLogin(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	register(t, srv.URL, "alice")
	token := login(t, srv.URL, "alice")
	assert.NotEmpty(t, token)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	register(t, srv.URL, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", api.RegisterRequest{
		Username: "alice",
		Params:   testParams(),
		AuthTag:  testAuthTag(),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterRejectsWeakParams(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	weak := testParams()
	weak.Iterations = 50_000

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", api.RegisterRequest{
		Username: "alice",
		Params:   weak,
		AuthTag:  testAuthTag(),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterRejectsShortAuthTag(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", api.RegisterRequest{
		Username: "alice",
		Params:   testParams(),
		AuthTag:  base64.StdEncoding.EncodeToString([]byte("short")),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDerivationParams(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	register(t, srv.URL, "alice")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/auth/params?username=alice", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.ParamsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, testParams(), out.Params)
}

func TestDerivationParamsUnknownUser(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/auth/params?username=ghost", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Login failures must be indistinguishable whether the username is
// unknown or the tag is wrong.
func TestLoginFailureIsUniform(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	register(t, srv.URL, "alice")

	wrongTag := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", api.LoginRequest{
		Username: "alice",
		AuthTag:  base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xFF}, 32)),
	})
	defer wrongTag.Body.Close()
	unknownUser := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", api.LoginRequest{
		Username: "ghost",
		AuthTag:  testAuthTag(),
	})
	defer unknownUser.Body.Close()

	require.Equal(t, http.StatusUnauthorized, wrongTag.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)

	var a, b api.ErrorResponse
	require.NoError(t, json.NewDecoder(wrongTag.Body).Decode(&a))
	require.NoError(t, json.NewDecoder(unknownUser.Body).Decode(&b))
	assert.Equal(t, a.Error, b.Error)
}

func TestBlobLifecycle(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	register(t, srv.URL, "alice")
	token := login(t, srv.URL, "alice")

	blob := api.BlobPayload{
		Ciphertext: base64.StdEncoding.EncodeToString([]byte("opaque ciphertext")),
		Nonce:      base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x01}, 12)),
	}

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/blobs/item-1", token, blob)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/blobs/item-1", token, nil)
	var got api.BlobPayload
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	assert.Equal(t, blob, got)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/blobs/", token, nil)
	var list api.ListBlobsResponse
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, []string{"item-1"}, list.BlobIDs)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/blobs/item-1", token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/blobs/item-1", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBlobRejectsBadNonce(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	register(t, srv.URL, "alice")
	token := login(t, srv.URL, "alice")

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/blobs/item-1", token, api.BlobPayload{
		Ciphertext: base64.StdEncoding.EncodeToString([]byte("data")),
		Nonce:      base64.StdEncoding.EncodeToString([]byte("too-short")),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBlobsRequireToken(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/blobs/", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/blobs/", "not-a-jwt", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Registered accounts must survive a server restart when the backing
// store is durable: login keeps working and the username stays taken.
func TestAccountsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywarden.db")

	repo, err := bboltstorage.NewRepositoryFromFile(path, nil)
	require.NoError(t, err)
	srv := setupServerWithRepo(t, repo)

	register(t, srv.URL, "alice")
	login(t, srv.URL, "alice")

	srv.Close()
	require.NoError(t, repo.Close())

	repo2, err := bboltstorage.NewRepositoryFromFile(path, nil)
	require.NoError(t, err)
	defer repo2.Close()
	srv2 := setupServerWithRepo(t, repo2)
	defer srv2.Close()

	token := login(t, srv2.URL, "alice")
	assert.NotEmpty(t, token)

	resp := doJSON(t, http.MethodPost, srv2.URL+"/api/v1/auth/register", "", api.RegisterRequest{
		Username: "alice",
		Params:   testParams(),
		AuthTag:  testAuthTag(),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// failingRepo simulates a backend outage with error strings that must
// never reach a client.
type failingRepo struct{}

var errBackendDown = errors.New("pgx: connection refused (host=10.0.0.5 db=keywarden)")

func (failingRepo) SaveAccount(context.Context, string, storage.Account) error {
	return errBackendDown
}

func (failingRepo) FetchAccount(context.Context, string) (storage.Account, error) {
	return storage.Account{}, errBackendDown
}

func (failingRepo) PutBlob(context.Context, string, string, *vault.EncryptedBlob) error {
	return errBackendDown
}

func (failingRepo) GetBlob(context.Context, string, string) (*vault.EncryptedBlob, error) {
	return nil, errBackendDown
}

func (failingRepo) DeleteBlob(context.Context, string, string) error {
	return errBackendDown
}

func (failingRepo) ListBlobs(context.Context, string) ([]string, error) {
	return nil, errBackendDown
}

func TestStorageErrorsAreOpaque(t *testing.T) {
	srv := setupServerWithRepo(t, failingRepo{})
	defer srv.Close()

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/auth/params?username=alice", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var out api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "internal error", out.Error)
	assert.NotContains(t, out.Error, "pgx")
}

func TestBlobsIsolatedPerAccount(t *testing.T) {
	srv := setupServer(t)
	defer srv.Close()

	register(t, srv.URL, "alice")
	register(t, srv.URL, "bob")
	aliceToken := login(t, srv.URL, "alice")
	bobToken := login(t, srv.URL, "bob")

	blob := api.BlobPayload{
		Ciphertext: base64.StdEncoding.EncodeToString([]byte("alice data")),
		Nonce:      base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x02}, 12)),
	}
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/blobs/item-1", aliceToken, blob)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/blobs/item-1", bobToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

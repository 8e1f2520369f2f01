package api

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/jmcleod/keywarden/internal/util"
	"github.com/jmcleod/keywarden/kdf"
	"github.com/jmcleod/keywarden/storage"
)

const maxAuthBodySize = 16 * 1024

// hashAuthTag is the only transformation the server applies to the
// client's authentication tag before storage. Storing a hash means a
// database leak yields neither the tag nor anything derivable toward
// the master key.
func hashAuthTag(tag []byte) []byte {
	sum := sha256.Sum256(tag)
	return sum[:]
}

func decodeParams(p ParamsPayload) (kdf.Params, error) {
	salt, err := base64.StdEncoding.DecodeString(p.Salt)
	if err != nil {
		return kdf.Params{}, err
	}
	return kdf.Params{Salt: salt, Iterations: p.Iterations}, nil
}

func encodeParams(p kdf.Params) ParamsPayload {
	return ParamsPayload{
		Salt:       base64.StdEncoding.EncodeToString(p.Salt),
		Iterations: p.Iterations,
	}
}

// Register handles POST /auth/register.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[RegisterRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	params, err := decodeParams(req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "params salt is not valid base64")
		return
	}
	// The server enforces the same policy floor as clients, so a
	// misbehaving client cannot register weak parameters.
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "derivation parameters below policy floor")
		return
	}

	tag, err := base64.StdEncoding.DecodeString(req.AuthTag)
	if err != nil || len(tag) != kdf.KeyLen {
		writeError(w, http.StatusBadRequest, "auth tag must be 32 bytes of base64")
		return
	}

	// Params and tag hash are written as one record: either the account
	// is fully registered or it does not exist.
	account := storage.Account{Params: params, AuthHash: hashAuthTag(tag)}
	if err := a.repo.SaveAccount(r.Context(), req.Username, account); err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			a.audit.logFailure(AuditRegisterFailure, r, "username unavailable")
			writeError(w, http.StatusConflict, "username unavailable")
			return
		}
		a.mapError(w, r, err)
		return
	}

	a.audit.logEvent(AuditRegister, r, req.Username)
	w.WriteHeader(http.StatusCreated)
}

// DerivationParams handles GET /auth/params?username=...
func (a *API) DerivationParams(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	account, err := a.repo.FetchAccount(r.Context(), username)
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ParamsResponse{Params: encodeParams(account.Params)})
}

// Login handles POST /auth/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}

	tag, err := base64.StdEncoding.DecodeString(req.AuthTag)
	if err != nil {
		a.audit.logFailure(AuditLoginFailure, r, "malformed auth tag")
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	account, err := a.repo.FetchAccount(r.Context(), req.Username)
	found := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		a.mapError(w, r, err)
		return
	}
	// Compare against a dummy hash when the account is unknown so the
	// response time does not reveal whether the username exists.
	expected := account.AuthHash
	if !found {
		expected = make([]byte, sha256.Size)
	}
	if !util.ConstantTimeEq(hashAuthTag(tag), expected) || !found {
		a.audit.logFailure(AuditLoginFailure, r, "auth tag mismatch")
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	token, err := a.tokens.issue(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	a.audit.logEvent(AuditLogin, r, req.Username)
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

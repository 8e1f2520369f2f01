package api

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/keywarden/vault"
)

// maxBlobBodySize bounds a single encrypted blob upload. Vault records
// and sealed TOTP seeds are small; anything near this limit is abuse.
const maxBlobBodySize = 256 * 1024

func decodeBlob(p BlobPayload) (*vault.EncryptedBlob, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(p.Ciphertext)
	if err != nil {
		return nil, err
	}
	nonce, err := base64.StdEncoding.DecodeString(p.Nonce)
	if err != nil {
		return nil, err
	}
	return &vault.EncryptedBlob{Ciphertext: ciphertext, Nonce: nonce}, nil
}

func encodeBlob(b *vault.EncryptedBlob) BlobPayload {
	return BlobPayload{
		Ciphertext: base64.StdEncoding.EncodeToString(b.Ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(b.Nonce),
	}
}

// PutBlob handles PUT /blobs/{blobID}.
func (a *API) PutBlob(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUsername(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	blobID := chi.URLParam(r, "blobID")

	payload, ok := decodeJSON[BlobPayload](w, r, maxBlobBodySize)
	if !ok {
		return
	}
	blob, err := decodeBlob(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "blob fields must be base64")
		return
	}
	if len(blob.Nonce) != vault.NonceSize {
		writeError(w, http.StatusBadRequest, "nonce must decode to 12 bytes")
		return
	}

	if err := a.repo.PutBlob(r.Context(), username, blobID, blob); err != nil {
		a.mapError(w, r, err)
		return
	}
	a.audit.logEvent(AuditBlobWrite, r, username)
	w.WriteHeader(http.StatusNoContent)
}

// GetBlob handles GET /blobs/{blobID}.
func (a *API) GetBlob(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUsername(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	blob, err := a.repo.GetBlob(r.Context(), username, chi.URLParam(r, "blobID"))
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeBlob(blob))
}

// DeleteBlob handles DELETE /blobs/{blobID}.
func (a *API) DeleteBlob(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUsername(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	if err := a.repo.DeleteBlob(r.Context(), username, chi.URLParam(r, "blobID")); err != nil {
		a.mapError(w, r, err)
		return
	}
	a.audit.logEvent(AuditBlobDelete, r, username)
	w.WriteHeader(http.StatusNoContent)
}

// ListBlobs handles GET /blobs.
func (a *API) ListBlobs(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUsername(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	ids, err := a.repo.ListBlobs(r.Context(), username)
	if err != nil {
		a.mapError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ListBlobsResponse{BlobIDs: ids})
}

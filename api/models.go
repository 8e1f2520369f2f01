package api

// ParamsPayload is the wire form of derivation parameters. Salt is
// standard padded base64.
type ParamsPayload struct {
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Username string        `json:"username"`
	Params   ParamsPayload `json:"params"`
	AuthTag  string        `json:"auth_tag"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	AuthTag  string `json:"auth_tag"`
}

// LoginResponse is returned from POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// ParamsResponse is returned from GET /auth/params.
type ParamsResponse struct {
	Params ParamsPayload `json:"params"`
}

// BlobPayload is the wire form of an encrypted blob. Both fields are
// standard padded base64; the nonce decodes to exactly 12 bytes.
type BlobPayload struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

// ListBlobsResponse is returned from GET /blobs.
type ListBlobsResponse struct {
	BlobIDs []string `json:"blob_ids"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}

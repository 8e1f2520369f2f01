package totp

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrInvalidSeed indicates a seed that is not valid base32 of at least
// the minimum length.
var ErrInvalidSeed = errors.New("invalid TOTP seed")

// minSeedChars is the minimum base32 seed length accepted for URI
// construction.
const minSeedChars = 16

// ProvisioningURI builds the otpauth:// URL consumed by authenticator
// apps. The label is the bare account identifier, not issuer:account;
// the issuer travels only as a query parameter.
func ProvisioningURI(seed, username, issuer string) (string, error) {
	if len(seed) < minSeedChars {
		return "", fmt.Errorf("%w: %d chars (min %d)", ErrInvalidSeed, len(seed), minSeedChars)
	}
	if _, err := decodeSeed(seed); err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("secret", seed)
	values.Set("issuer", issuer)
	values.Set("algorithm", "SHA1")
	values.Set("digits", strconv.Itoa(Digits))
	values.Set("period", strconv.Itoa(Period))

	return "otpauth://totp/" + url.PathEscape(username) + "?" + values.Encode(), nil
}

// ProvisioningQR renders the provisioning URI as a PNG QR code of the
// given pixel size for display during TOTP enrolment.
func ProvisioningQR(seed, username, issuer string, size int) ([]byte, error) {
	uri, err := ProvisioningURI(seed, username, issuer)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encoding QR code: %w", err)
	}
	return png, nil
}

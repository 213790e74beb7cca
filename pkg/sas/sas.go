// Package sas generates shared access signature tokens for Azure IoT Hub
// and the Device Provisioning Service.
//
// Token generation is deterministic: the same resource, key and expiry
// always produce the same token. The cryptographic primitives are supplied
// through the Crypto interface so constrained or hardware-backed
// environments can substitute their own implementations; StdCrypto covers
// everything else with the standard library.
package sas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrCrypto is returned when a cryptographic primitive fails.
var ErrCrypto = errors.New("sas: crypto operation failed")

// Defaults for token lifetime management.
const (
	// DefaultLifetimeMinutes is the token lifetime applied when the
	// device configuration does not set one.
	DefaultLifetimeMinutes = 60

	// RefreshThresholdSeconds is how long before expiry a token is
	// considered stale and must be regenerated.
	RefreshThresholdSeconds = 30
)

// Crypto supplies the primitives token generation needs. All three must be
// implemented; implementations must not retain the slices passed in.
type Crypto interface {
	// Base64Decode decodes a standard base64 string.
	Base64Decode(encoded string) ([]byte, error)
	// Base64Encode encodes raw bytes as standard base64.
	Base64Encode(raw []byte) (string, error)
	// HMACSHA256 computes the HMAC-SHA256 of data under key.
	HMACSHA256(key, data []byte) ([]byte, error)
}

// StdCrypto implements Crypto with the standard library.
type StdCrypto struct{}

var _ Crypto = (*StdCrypto)(nil)

func (StdCrypto) Base64Decode(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

func (StdCrypto) Base64Encode(raw []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (StdCrypto) HMACSHA256(key, data []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// Generate builds a token of the form
//
//	SharedAccessSignature sr={resource}&sig={signature}&se={expiry}
//
// for resourceURI, signed with the base64-encoded symmetric deviceKey and
// valid until expiry (unix seconds). The string to sign is the URL-encoded
// resource, a newline and the decimal expiry, in that order.
func Generate(c Crypto, deviceKey, resourceURI string, expiry uint32) (string, error) {
	key, err := c.Base64Decode(deviceKey)
	if err != nil {
		return "", fmt.Errorf("%w: decoding device key: %w", ErrCrypto, err)
	}

	encodedResource := url.QueryEscape(resourceURI)
	expiryStr := strconv.FormatUint(uint64(expiry), 10)

	signature, err := c.HMACSHA256(key, []byte(encodedResource+"\n"+expiryStr))
	if err != nil {
		return "", fmt.Errorf("%w: signing: %w", ErrCrypto, err)
	}

	encodedSignature, err := c.Base64Encode(signature)
	if err != nil {
		return "", fmt.Errorf("%w: encoding signature: %w", ErrCrypto, err)
	}

	return "SharedAccessSignature sr=" + encodedResource +
		"&sig=" + url.QueryEscape(encodedSignature) +
		"&se=" + expiryStr, nil
}

// NeedsRefresh reports whether a token expiring at expiry should be
// regenerated at time now, both in unix seconds.
func NeedsRefresh(now, expiry uint32) bool {
	return now+RefreshThresholdSeconds >= expiry
}

package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Verify checks an HMAC-SHA256 webhook signature against the raw request body.
// The header value may carry a "sha256=" prefix. The body must be the exact
// bytes as received; hashing a re-serialized payload would break on key order
// and whitespace differences.
func Verify(body []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}

	provided := strings.TrimPrefix(strings.TrimSpace(header), "sha256=")
	providedBytes, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	return hmac.Equal(providedBytes, expected)
}

// Sign computes the hex HMAC-SHA256 digest of body, without the header prefix.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

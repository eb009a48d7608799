package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// ValidSignature reports whether sig is the correct X-Line-Signature for
// body: base64 of the HMAC-SHA256 of the raw request body keyed with the
// channel secret. Comparison is constant-time.
func ValidSignature(channelSecret string, body []byte, sig string) bool {
	if channelSecret == "" || sig == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}

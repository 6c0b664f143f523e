package events

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHMAC returns the hex HMAC-SHA256 of body under secret. Sent as the
// X-Signature header on every delivery; receivers verify before trusting the
// payload.
func SignHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC reports whether sig matches body under secret, in constant time.
func VerifyHMAC(secret string, body []byte, sig string) bool {
	want := SignHMAC(secret, body)
	return hmac.Equal([]byte(want), []byte(sig))
}

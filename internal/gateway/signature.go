package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignWebhook returns the hex HMAC-SHA256 Razorpay puts in X-Razorpay-Signature.
func SignWebhook(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks signature against the raw request body.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	sig := strings.ToLower(strings.TrimSpace(signature))
	if sig == "" || secret == "" {
		return false
	}
	expected := SignWebhook(payload, secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// VerifySignature validates the HMAC-SHA512 signature of a Paystack webhook.
// payload must be the exact bytes received, before any parsing.
func VerifySignature(payload []byte, signature string, secretKey string) bool {
	signature = strings.TrimSpace(signature)
	if secretKey == "" || signature == "" {
		return false
	}

	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(given, sum(payload, secretKey))
}

// Sign creates the signature Paystack would send for payload.
func Sign(payload []byte, secretKey string) string {
	if secretKey == "" {
		return ""
	}
	return hex.EncodeToString(sum(payload, secretKey))
}

func sum(payload []byte, secretKey string) []byte {
	h := hmac.New(sha512.New, []byte(secretKey))
	h.Write(payload)
	return h.Sum(nil)
}

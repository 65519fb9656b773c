package clients

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// Signer computes request signatures for private Binance endpoints.
type Signer struct {
	secret []byte
}

// NewSigner returns a signer keyed by the account API secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex encoded HMAC-SHA256 of payload.
func (s *Signer) Sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery serializes params with keys in sorted order; multi-valued
// keys are repeated, so the signed string is the one that goes on the wire.
func canonicalQuery(params url.Values) string {
	return params.Encode()
}

package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Codec derives the storable form of a plaintext secret. The derivation is a
// keyed HMAC-SHA256 (server-side pepper = process secret), so it is
// deterministic: login can hash the supplied secret and ask the store for an
// exact match instead of comparing plaintexts.
type Codec struct {
	key []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{key: []byte(secret)}
}

// Hash is one-way and pure; same input always yields the same hex digest.
func (c *Codec) Hash(plain string) string {
	h := hmac.New(sha256.New, c.key)
	h.Write([]byte(plain))
	return hex.EncodeToString(h.Sum(nil))
}

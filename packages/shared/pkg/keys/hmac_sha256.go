package keys

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type HMACSha256Hashing struct {
	key []byte
}

func NewHMACSHA256Hashing(key []byte) *HMACSha256Hashing {
	return &HMACSha256Hashing{key: key}
}

func (h *HMACSha256Hashing) Sum(content []byte) []byte {
	mac := hmac.New(sha256.New, h.key)
	mac.Write(content)

	return mac.Sum(nil)
}

func (h *HMACSha256Hashing) Hash(content []byte) string {
	return hex.EncodeToString(h.Sum(content))
}

// Verify reports whether hexDigest is the HMAC of content. The comparison runs in constant time.
func (h *HMACSha256Hashing) Verify(content []byte, hexDigest string) (bool, error) {
	expected, err := hex.DecodeString(hexDigest)
	if err != nil {
		return false, fmt.Errorf("error decoding digest: %w", err)
	}

	return hmac.Equal(h.Sum(content), expected), nil
}

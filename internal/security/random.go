package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// KeyAlphabet is the 32-symbol alphabet used for access-key suffixes. Ambiguous glyphs are excluded.
const KeyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRandomString returns n random bytes encoded as hex.
func GenerateRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, errRead := rand.Read(buf); errRead != nil {
		return "", fmt.Errorf("security: read random: %w", errRead)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateKeySuffix returns length symbols drawn uniformly from KeyAlphabet.
func GenerateKeySuffix(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("security: invalid suffix length %d", length)
	}
	base := big.NewInt(int64(len(KeyAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, errRand := rand.Int(rand.Reader, base)
		if errRand != nil {
			return "", fmt.Errorf("security: read random: %w", errRand)
		}
		out[i] = KeyAlphabet[n.Int64()]
	}
	return string(out), nil
}

// HashToken returns the hex sha256 digest of a one-time token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

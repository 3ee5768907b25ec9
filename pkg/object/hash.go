package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// RawLen is the length of a raw SHA-1 digest in bytes.
	RawLen = sha1.Size
	// HexLen is the length of the external hex rendering of a digest.
	HexLen = RawLen * 2
)

// HashObject computes the SHA-1 of the canonical form
// "kind len\0payload". Identity is derived from content, never assigned:
// identical kind and payload always collide to the same hash.
func HashObject(kind Kind, payload []byte) Hash {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", kind, len(payload))
	h.Write(payload)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ParseHash validates an externally supplied object name and normalizes
// it to lowercase hex.
func ParseHash(s string) (Hash, error) {
	if len(s) != HexLen {
		return "", fmt.Errorf("invalid object name %q: want %d hex characters, got %d", s, HexLen, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid object name %q: %w", s, err)
	}
	return Hash(strings.ToLower(s)), nil
}

// Raw returns the 20-byte digest behind the hex representation.
func (h Hash) Raw() ([]byte, error) {
	raw, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("hash %q: %w", h, err)
	}
	if len(raw) != RawLen {
		return nil, fmt.Errorf("hash %q: want %d raw bytes, got %d", h, RawLen, len(raw))
	}
	return raw, nil
}

// HashFromRaw converts a raw digest into its hex Hash form.
func HashFromRaw(raw []byte) Hash {
	return Hash(hex.EncodeToString(raw))
}

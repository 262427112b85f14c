package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainGraph separates graph fingerprints from any other hash in the system.
const DomainGraph = "scaffold/graph/v1"

// Fingerprint returns the hex SHA-256 of the canonical JSON form of g,
// prefixed by DomainGraph and a NUL separator. Identical graphs always share
// a fingerprint, which is what the store uses to detect tampered rows.
func Fingerprint(g *Graph) (string, error) {
	data, err := MarshalCanonical(g)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(DomainGraph))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

package catalog

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID generates a random identifier of the form "{prefix}_<hex>".
func NewID(prefix string) string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ChunkID derives the content-addressed identifier for a chunk. The id is a
// SHA-256 over the collection name and chunk text, so re-submitting identical
// text into the same collection always maps to the same row.
func ChunkID(collection, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", collection, text)))
	return hex.EncodeToString(sum[:])
}

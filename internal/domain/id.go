package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewChunkID derives a content-addressable chunk id from the parent
// document id, the chunk's position and its content hash, so that
// re-ingesting byte-identical content yields the same id while a content
// change at the same position produces a different one.
func NewChunkID(parentDocID string, chunkIndex int, content string) string {
	contentHash := sha256.Sum256([]byte(content))
	contentHashStr := hex.EncodeToString(contentHash[:])[:16]
	input := fmt.Sprintf("%s:%d:%s", parentDocID, chunkIndex, contentHashStr)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// NewDocumentID derives a content-addressable document id from its source
// path (for media documents) or its content (for text documents), so that
// re-ingesting the same source yields a stable id.
func NewDocumentID(sourceOrContent string) string {
	hash := sha256.Sum256([]byte(sourceOrContent))
	return hex.EncodeToString(hash[:])[:16]
}

// NewOpaqueID mints an opaque id for entities with no natural content
// address (BatchJob, MediaTask).
func NewOpaqueID() string {
	return uuid.NewString()
}

package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vmonin/semknow/internal/domain"
)

// mediaTypeForChunkType reverses domain.RefChunkType for the three *_ref
// chunk kinds; ok is false for anything else.
func mediaTypeForChunkType(ct domain.ChunkType) (domain.MediaType, bool) {
	switch ct {
	case domain.ChunkTypeImageRef:
		return domain.MediaTypeImage, true
	case domain.ChunkTypeAudioRef:
		return domain.MediaTypeAudio, true
	case domain.ChunkTypeVideoRef:
		return domain.MediaTypeVideo, true
	default:
		return "", false
	}
}

// isUnresolvableRef reports whether a media reference is a URL or a data
// URI; neither resolves to a local path, so the enrichment walk skips it
// and leaves the bare reference chunk untouched.
func isUnresolvableRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "data:")
}

// resolveMediaPath applies the three-tier resolution rule: absolute paths
// are used as-is; otherwise try relative to the document's source
// directory, then relative to the process's working directory. ok is
// false when no candidate exists on disk.
func resolveMediaPath(ref, sourceDir string) (resolved string, ok bool) {
	if filepath.IsAbs(ref) {
		_, err := os.Stat(ref)
		return ref, err == nil
	}

	if sourceDir != "" {
		candidate := filepath.Join(sourceDir, ref)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, ref)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return ref, false
}

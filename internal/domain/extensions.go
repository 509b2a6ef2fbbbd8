package domain

import "strings"

// Recognized media file extensions. Classification is by extension
// only; unknown extensions inside an image markdown construct fall back to
// image_ref per the parser contract.
var (
	audioExtensions = map[string]bool{
		"mp3": true, "wav": true, "ogg": true, "flac": true, "aac": true, "aiff": true,
	}
	videoExtensions = map[string]bool{
		"mp4": true, "mov": true, "avi": true, "mkv": true, "webm": true,
	}
	imageExtensions = map[string]bool{
		"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true, "svg": true, "bmp": true,
	}
)

// ClassifyMediaExtension returns the ChunkType a path's extension implies,
// and whether the extension was recognized at all (audio/video/image).
func ClassifyMediaExtension(path string) (ChunkType, bool) {
	ext := extensionOf(path)
	switch {
	case audioExtensions[ext]:
		return ChunkTypeAudioRef, true
	case videoExtensions[ext]:
		return ChunkTypeVideoRef, true
	case imageExtensions[ext]:
		return ChunkTypeImageRef, true
	default:
		return "", false
	}
}

func extensionOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || i == len(path)-1 {
		return ""
	}
	ext := strings.ToLower(path[i+1:])
	// Strip any trailing query/fragment a markdown link target might carry.
	if j := strings.IndexAny(ext, "?#"); j >= 0 {
		ext = ext[:j]
	}
	return ext
}

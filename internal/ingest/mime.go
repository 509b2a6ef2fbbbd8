package ingest

import (
	"path/filepath"
	"strings"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/domain"
)

var extMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// mimeTypeForPath reports the MIME type for a media path by extension,
// falling back to "application/octet-stream" for anything unrecognized.
func mimeTypeForPath(path string) string {
	if mt, ok := extMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// aiclientMediaRequest builds the request an Analyzer receives.
func aiclientMediaRequest(path, mimeType string, mt domain.MediaType, contextText, userPrompt string) aiclient.MediaRequest {
	return aiclient.MediaRequest{
		Path:        path,
		MimeType:    mimeType,
		ContextText: contextText,
		UserPrompt:  userPrompt,
		MediaType:   mt,
	}
}

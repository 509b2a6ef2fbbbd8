package domain

import "strings"

// Concrete metadata keys under the reserved _vision_*/_audio_*/_video_*
// families, populated by the media pipeline's enrichment steps and
// consumed by the Context Strategy's kind-specialized vector-text
// formation.
const (
	MetaKeyVisionDescription = "_vision_description"
	MetaKeyVisionOCR         = "_vision_ocr"
	MetaKeyVisionKeywords    = "_vision_keywords"

	MetaKeyAudioTranscription = "_audio_transcription"
	MetaKeyAudioSpeakers      = "_audio_speakers"
	MetaKeyAudioActionItems   = "_audio_action_items"
	MetaKeyAudioKeywords      = "_audio_keywords"
	MetaKeyAudioDuration      = "_audio_duration_seconds"

	MetaKeyVideoDescription   = "_video_description"
	MetaKeyVideoTranscription = "_video_audio_transcription"
	MetaKeyVideoVisibleText   = "_video_visible_text"
	MetaKeyVideoKeywords      = "_video_keywords"
	MetaKeyVideoDuration      = "_video_duration_seconds"
)

// listSep joins multi-value fields (keywords, participants, action items)
// into a single metadata string.
const listSep = "; "

// EncodeList joins a multi-value field for metadata storage.
func EncodeList(items []string) string {
	return strings.Join(items, listSep)
}

// DecodeList recovers a multi-value field EncodeList wrote.
func DecodeList(encoded string) []string {
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, listSep)
}

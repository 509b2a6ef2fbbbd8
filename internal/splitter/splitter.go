// Package splitter implements SmartSplitter: it turns a parser segment
// sequence into a sequence of domain.Chunks, buffering text up to a size
// limit, isolating code and media references into dedicated chunks, and
// splitting long code on line boundaries.
package splitter

import (
	"strings"

	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/parser"
)

// Config bounds the two chunk sizes.
type Config struct {
	TextChunkSize int // default 1800, bounds [500, 8000]
	CodeChunkSize int // default 2000, bounds [500, 10000]
}

// DefaultConfig returns the default chunk sizes.
func DefaultConfig() Config {
	return Config{TextChunkSize: 1800, CodeChunkSize: 2000}
}

// SmartSplitter turns segments into chunks.
type SmartSplitter struct {
	cfg Config
}

// New returns a splitter bounded by cfg.
func New(cfg Config) *SmartSplitter {
	return &SmartSplitter{cfg: cfg}
}

// Split converts segs into dense, 0-indexed chunks owned by parentDocID.
func (s *SmartSplitter) Split(segs []parser.Segment, parentDocID string) []domain.Chunk {
	var chunks []domain.Chunk
	nextIndex := 0

	var textBuf []string
	var textHeaders []string

	emit := func(chunkType domain.ChunkType, content string, headers []string, language string, extra map[string]string) {
		meta := map[string]string{}
		for k, v := range extra {
			meta[k] = v
		}
		if len(headers) > 0 {
			meta[domain.MetaKeyHeaders] = domain.EncodeHeaders(headers)
		}
		id := domain.NewChunkID(parentDocID, nextIndex, content)
		chunks = append(chunks, domain.Chunk{
			ID:              id,
			ParentDocID:     parentDocID,
			ChunkIndex:      nextIndex,
			Content:         content,
			ChunkType:       chunkType,
			Language:        language,
			Metadata:        meta,
			EmbeddingStatus: domain.EmbeddingStatusPending,
		})
		nextIndex++
	}

	flushText := func() {
		if len(textBuf) == 0 {
			return
		}
		joined := strings.Join(textBuf, "\n\n")
		for _, piece := range splitLongText(joined, s.cfg.TextChunkSize) {
			emit(domain.ChunkTypeText, piece, textHeaders, "", nil)
		}
		textBuf = nil
		textHeaders = nil
	}

	for _, seg := range segs {
		switch seg.Type {
		case domain.ChunkTypeText:
			candidate := strings.TrimSpace(seg.Content)
			if candidate == "" {
				continue
			}
			if len(textBuf) == 0 {
				textHeaders = seg.Headers
			}
			// Would appending this segment overflow the current buffer?
			// Flush first so a buffer exactly at chunk_size stays one chunk.
			current := strings.Join(textBuf, "\n\n")
			projected := candidate
			if current != "" {
				projected = current + "\n\n" + candidate
			}
			if current != "" && len(projected) > s.cfg.TextChunkSize {
				flushText()
				textHeaders = seg.Headers
			}
			textBuf = append(textBuf, candidate)

		case domain.ChunkTypeCode:
			flushText()
			for _, piece := range splitCodePreservingLines(seg.Content, s.cfg.CodeChunkSize) {
				emit(domain.ChunkTypeCode, piece, seg.Headers, seg.Language, nil)
			}

		case domain.ChunkTypeImageRef, domain.ChunkTypeAudioRef, domain.ChunkTypeVideoRef:
			flushText()
			extra := map[string]string{}
			if seg.Alt != "" {
				extra[domain.MetaKeyAlt] = seg.Alt
			}
			if seg.Title != "" {
				extra[domain.MetaKeyTitle] = seg.Title
			}
			emit(seg.Type, seg.Content, seg.Headers, "", extra)
		}
	}
	flushText()

	return chunks
}

// splitLongText breaks text into pieces of at most maxSize, preferring
// paragraph, then sentence, then whitespace boundaries. A text
// exactly maxSize long is returned as a single piece.
func splitLongText(text string, maxSize int) []string {
	if len(text) <= maxSize {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var out []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
	}

	for _, para := range paragraphs {
		if len(para) > maxSize {
			flush()
			out = append(out, splitAtSentenceBoundary(para, maxSize)...)
			continue
		}
		projected := para
		if buf.Len() > 0 {
			projected = buf.String() + "\n\n" + para
		}
		if buf.Len() > 0 && len(projected) > maxSize {
			flush()
			buf.WriteString(para)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}
	flush()
	return out
}

// splitAtSentenceBoundary splits a single oversized paragraph on sentence
// boundaries (". ", "! ", "? "), falling back to whitespace boundaries for
// any residual piece still over maxSize.
func splitAtSentenceBoundary(text string, maxSize int) []string {
	sentences := splitKeepingDelimiter(text, ".!?")
	var out []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, strings.TrimSpace(buf.String()))
		buf.Reset()
	}

	for _, sent := range sentences {
		if len(sent) > maxSize {
			flush()
			out = append(out, splitAtWhitespaceBoundary(sent, maxSize)...)
			continue
		}
		projected := sent
		if buf.Len() > 0 {
			projected = buf.String() + sent
		}
		if buf.Len() > 0 && len(projected) > maxSize {
			flush()
			buf.WriteString(sent)
			continue
		}
		buf.WriteString(sent)
	}
	flush()
	return out
}

// splitAtWhitespaceBoundary is the last-resort splitter: greedily pack
// whitespace-separated tokens into pieces of at most maxSize.
func splitAtWhitespaceBoundary(text string, maxSize int) []string {
	fields := strings.Fields(text)
	var out []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
	}

	for _, f := range fields {
		if len(f) > maxSize {
			// Token longer than maxSize: hard-cut, there is no finer
			// boundary left to try.
			flush()
			for len(f) > maxSize {
				out = append(out, f[:maxSize])
				f = f[maxSize:]
			}
			if f == "" {
				continue
			}
		}
		projected := f
		if buf.Len() > 0 {
			projected = buf.String() + " " + f
		}
		if buf.Len() > 0 && len(projected) > maxSize {
			flush()
			buf.WriteString(f)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(f)
	}
	flush()
	return out
}

// splitKeepingDelimiter splits s after each rune in delims, keeping the
// delimiter attached to the preceding sentence.
func splitKeepingDelimiter(s string, delims string) []string {
	var out []string
	var buf strings.Builder
	for _, r := range s {
		buf.WriteRune(r)
		if strings.ContainsRune(delims, r) {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}

// splitCodePreservingLines packs whole lines into chunks of at most
// maxSize characters; a single line longer than maxSize is kept intact
// rather than broken mid-line.
func splitCodePreservingLines(code string, maxSize int) []string {
	if len(code) <= maxSize {
		return []string{code}
	}
	lines := strings.Split(code, "\n")
	var out []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
	}

	for _, line := range lines {
		projected := line
		if buf.Len() > 0 {
			projected = buf.String() + "\n" + line
		}
		if buf.Len() > 0 && len(projected) > maxSize {
			flush()
			buf.WriteString(line)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)
	}
	flush()
	return out
}

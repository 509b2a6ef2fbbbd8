// Package parser implements MarkdownNodeParser: it turns a Markdown
// string into an ordered sequence of typed segments (text, code, media
// references), each carrying the breadcrumb stack of headings above it.
package parser

import (
	"regexp"
	"strings"

	"github.com/vmonin/semknow/internal/domain"
)

// Segment is one unit of a parsed document: text, code, or a media
// reference. Content holds the plain text (text), the code body (code), or
// the reference URI/path (media kinds).
type Segment struct {
	Type     domain.ChunkType
	Content  string
	Headers  []string
	Language string
	Alt      string
	Title    string
}

var (
	headerPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	fenceOpenPattern = regexp.MustCompile("^(```|~~~)\\s*([a-zA-Z0-9_+-]*)\\s*$")

	// A paragraph consisting of exactly one image construct:
	// ![alt](path "title")
	imageOnlyPattern = regexp.MustCompile(`^!\[([^\]]*)\]\(([^\s)]+)(?:\s+"([^"]*)")?\)$`)

	// A paragraph consisting of exactly one link construct:
	// [text](path "title"), only classified as media when the target
	// extension is audio/video.
	linkOnlyPattern = regexp.MustCompile(`^\[([^\]]*)\]\(([^\s)]+)(?:\s+"([^"]*)")?\)$`)
)

// MarkdownNodeParser converts Markdown into a segment stream. It is
// stateless and restartable: calling Parse twice on the same input produces
// an identical sequence.
type MarkdownNodeParser struct{}

// New returns a ready-to-use parser.
func New() *MarkdownNodeParser {
	return &MarkdownNodeParser{}
}

// Parse returns the ordered segment sequence for content.
func (p *MarkdownNodeParser) Parse(content string) []Segment {
	lines := strings.Split(content, "\n")
	var segments []Segment

	headerStack := make([]string, 6)
	var paraLines []string
	var paraHeaders []string

	flushParagraph := func() {
		if len(paraLines) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(paraLines, "\n"))
		paraLines = nil
		if text == "" {
			return
		}
		if seg, ok := mediaSegmentFromParagraph(text, paraHeaders); ok {
			segments = append(segments, seg)
			return
		}
		segments = append(segments, Segment{
			Type:    domain.ChunkTypeText,
			Content: text,
			Headers: paraHeaders,
		})
	}

	currentHeaders := func() []string {
		out := make([]string, 0, 6)
		for _, h := range headerStack {
			if h != "" {
				out = append(out, h)
			}
		}
		return out
	}

	i := 0
	for i < len(lines) {
		line := lines[i]

		if m := fenceOpenPattern.FindStringSubmatch(line); m != nil {
			flushParagraph()
			fence := m[1]
			lang := m[2]
			var codeLines []string
			i++
			for i < len(lines) && strings.TrimSpace(lines[i]) != fence {
				codeLines = append(codeLines, lines[i])
				i++
			}
			// Skip the closing fence line if found; a missing closer just
			// runs to EOF rather than failing the parse.
			if i < len(lines) {
				i++
			}
			segments = append(segments, Segment{
				Type:     domain.ChunkTypeCode,
				Content:  strings.Join(codeLines, "\n"),
				Headers:  currentHeaders(),
				Language: lang,
			})
			continue
		}

		if m := headerPattern.FindStringSubmatch(line); m != nil {
			flushParagraph()
			level := len(m[1])
			title := strings.TrimSpace(m[2])
			headerStack[level-1] = title
			for j := level; j < 6; j++ {
				headerStack[j] = ""
			}
			i++
			continue
		}

		if strings.TrimSpace(line) == "" {
			flushParagraph()
			i++
			continue
		}

		if len(paraLines) == 0 {
			paraHeaders = currentHeaders()
		}
		paraLines = append(paraLines, line)
		i++
	}
	flushParagraph()

	return segments
}

// mediaSegmentFromParagraph classifies a standalone paragraph as a media
// segment when it is exactly one image construct, or a link construct
// whose target is an audio/video file.
func mediaSegmentFromParagraph(text string, headers []string) (Segment, bool) {
	if m := imageOnlyPattern.FindStringSubmatch(text); m != nil {
		alt, path, title := m[1], m[2], m[3]
		ct, ok := domain.ClassifyMediaExtension(path)
		if !ok {
			// Unknown extension inside ![]() falls back to image_ref.
			ct = domain.ChunkTypeImageRef
		}
		return Segment{
			Type:    ct,
			Content: path,
			Headers: headers,
			Alt:     alt,
			Title:   title,
		}, true
	}

	if m := linkOnlyPattern.FindStringSubmatch(text); m != nil {
		path := m[2]
		ct, ok := domain.ClassifyMediaExtension(path)
		if ok && (ct == domain.ChunkTypeAudioRef || ct == domain.ChunkTypeVideoRef) {
			return Segment{
				Type:    ct,
				Content: path,
				Headers: headers,
				Alt:     m[1],
				Title:   m[3],
			}, true
		}
	}

	return Segment{}, false
}

package media

import (
	"regexp"
	"strconv"
)

// timecodePattern matches a "[MM:SS]" or "[HH:MM:SS]" token anywhere in
// the text.
var timecodePattern = regexp.MustCompile(`\[(\d{1,2}):(\d{2})(?::(\d{2}))?\]`)

// parsedTimecode is one token parseTimecode recognized in a chunk's
// content, plus the seconds it denotes.
type parsedTimecode struct {
	raw     string
	seconds float64
	found   bool
}

// parseTimecode extracts the first "[MM:SS]"/"[HH:MM:SS]" token from
// content. found is false when content carries no such token.
func parseTimecode(content string) parsedTimecode {
	m := timecodePattern.FindStringSubmatch(content)
	if m == nil {
		return parsedTimecode{}
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	var seconds float64
	if m[3] != "" {
		c, _ := strconv.Atoi(m[3])
		seconds = float64(a*3600 + b*60 + c)
	} else {
		seconds = float64(a*60 + b)
	}
	return parsedTimecode{raw: m[0], seconds: seconds, found: true}
}

// timecodeAssignment is the per-chunk result of assignTimecodes.
type timecodeAssignment struct {
	StartSeconds float64
	Original     string // raw "[MM:SS]" token text; empty when inherited
}

// assignTimecodes walks chunks in order, computing start_seconds (and, when
// an explicit token was present and valid, the original token text) for
// each. A chunk with no usable token inherits from
// the last known timecode plus a uniform delta (totalDuration/len(chunks));
// the first chunk with no token starts at 0. A token whose seconds exceed
// durationSeconds is treated as invalid and dropped, falling back to the
// inherited value as if no token were present.
func assignTimecodes(contents []string, durationSeconds float64) []timecodeAssignment {
	n := len(contents)
	out := make([]timecodeAssignment, n)
	if n == 0 {
		return out
	}

	delta := 0.0
	if durationSeconds > 0 {
		delta = durationSeconds / float64(n)
	}

	last := 0.0
	haveLast := false
	for i, content := range contents {
		tc := parseTimecode(content)
		switch {
		case tc.found && (durationSeconds <= 0 || tc.seconds <= durationSeconds):
			out[i] = timecodeAssignment{StartSeconds: tc.seconds, Original: tc.raw}
			last = tc.seconds
			haveLast = true
		case haveLast:
			last += delta
			out[i] = timecodeAssignment{StartSeconds: last}
		default:
			last = 0
			haveLast = true
			out[i] = timecodeAssignment{StartSeconds: 0}
		}
	}
	return out
}

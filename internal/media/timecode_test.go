package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimecodeRecognizesMinutesSeconds(t *testing.T) {
	tc := parseTimecode("[01:30] hello")
	assert.True(t, tc.found)
	assert.Equal(t, 90.0, tc.seconds)
	assert.Equal(t, "[01:30]", tc.raw)
}

func TestParseTimecodeRecognizesHoursMinutesSeconds(t *testing.T) {
	tc := parseTimecode("[01:02:03] hello")
	assert.True(t, tc.found)
	assert.Equal(t, float64(1*3600+2*60+3), tc.seconds)
}

func TestParseTimecodeReportsNotFoundWithoutToken(t *testing.T) {
	tc := parseTimecode("no token here")
	assert.False(t, tc.found)
}

func TestAssignTimecodesFirstChunkWithoutTokenStartsAtZero(t *testing.T) {
	out := assignTimecodes([]string{"no token", "also none"}, 100)
	assert.Equal(t, 0.0, out[0].StartSeconds)
}

func TestAssignTimecodesUsesExplicitTokenWhenValid(t *testing.T) {
	out := assignTimecodes([]string{"[00:10] a", "[00:20] b"}, 100)
	assert.Equal(t, 10.0, out[0].StartSeconds)
	assert.Equal(t, "[00:10]", out[0].Original)
	assert.Equal(t, 20.0, out[1].StartSeconds)
}

func TestAssignTimecodesInheritsFromLastKnownPlusUniformDelta(t *testing.T) {
	// 3 chunks, total duration 90 -> delta 30 each.
	out := assignTimecodes([]string{"[00:00] a", "no token b", "no token c"}, 90)
	assert.Equal(t, 0.0, out[0].StartSeconds)
	assert.Equal(t, 30.0, out[1].StartSeconds)
	assert.Equal(t, 60.0, out[2].StartSeconds)
	assert.Empty(t, out[1].Original)
}

func TestAssignTimecodesDropsTokenExceedingDuration(t *testing.T) {
	out := assignTimecodes([]string{"[00:00] a", "[05:00] too far"}, 60)
	// second token (300s) exceeds duration (60s) so it's dropped, inheriting
	// from the last known timecode plus the uniform delta instead.
	assert.Equal(t, 0.0, out[0].StartSeconds)
	assert.Equal(t, 30.0, out[1].StartSeconds)
	assert.Empty(t, out[1].Original)
}

package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJSONLLineMatchesWireFormat(t *testing.T) {
	line, err := buildJSONLLine("chunk-1", "hello world", "text-embedding-3")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"custom_id": "chunk_chunk-1",
		"request": {
			"model": "text-embedding-3",
			"content": {"parts": [{"text": "hello world"}]}
		}
	}`, line)
}

func TestCustomIDForChunkUsesChunkPrefix(t *testing.T) {
	assert.Equal(t, "chunk_abc123", customIDForChunk("abc123"))
}

package batch

import "encoding/json"

// jsonlLine is the wire shape of one line of the JSONL batch-embedding
// request body: one embedding request per chunk, keyed by a
// custom_id the provider echoes back so results can be matched to chunks.
type jsonlLine struct {
	CustomID string       `json:"custom_id"`
	Request  jsonlRequest `json:"request"`
}

type jsonlRequest struct {
	Model   string       `json:"model"`
	Content jsonlContent `json:"content"`
}

type jsonlContent struct {
	Parts []jsonlPart `json:"parts"`
}

type jsonlPart struct {
	Text string `json:"text"`
}

// customIDForChunk builds the "chunk_<id>" custom_id so PollBatch results
// map back onto chunk rows unambiguously.
func customIDForChunk(chunkID string) string { return "chunk_" + chunkID }

// buildJSONLLine renders one request line for chunkID/vectorText under
// model. Returned purely for the provider adapters and tests to exercise
// the exact wire format; submission itself goes through
// aiclient.Embedder.SubmitBatch, which owns how lines are framed and sent.
func buildJSONLLine(chunkID, vectorText, model string) (string, error) {
	line := jsonlLine{
		CustomID: customIDForChunk(chunkID),
		Request: jsonlRequest{
			Model: model,
			Content: jsonlContent{
				Parts: []jsonlPart{{Text: vectorText}},
			},
		},
	}
	b, err := json.Marshal(line)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

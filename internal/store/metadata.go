package store

import (
	"encoding/json"
	"sort"
	"strings"
)

// encodeMetadata serializes a chunk/document metadata map to the
// metadata_json column's wire format: stable key order, so byte-identical
// maps always serialize identically (useful for tests and diffing).
func encodeMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(s string) (map[string]string, error) {
	if s == "" {
		return map[string]string{}, nil
	}
	m := map[string]string{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// metadataJSONToText flattens a metadata_json blob into "key: value" lines
// for the FTS metadata_text column, so a search for a tag or alt-text word
// matches through chunks_fts without a separate metadata index.
func metadataJSONToText(metaJSON string) string {
	m, err := decodeMetadata(metaJSON)
	if err != nil || len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(m[k])
	}
	return b.String()
}

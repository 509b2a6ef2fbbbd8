package store

import (
	"fmt"
	"sort"
	"strings"
)

// Filters is a mapping from document metadata key to a required scalar
// value. Search methods translate it into a WHERE clause of
// json_extract(documents.metadata_json, '$.<key>') = ? conjuncts.
type Filters map[string]string

// whereClause builds the filter clause and its bound arguments, walking
// keys in sorted order so the generated SQL (and therefore query plan
// caching) is stable across calls with the same filter set.
func (f Filters) whereClause(paramOffset int) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []string
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, fmt.Sprintf("json_extract(d.metadata_json, '$.%s') = ?", k))
		args = append(args, f[k])
	}
	return strings.Join(clauses, " AND "), args
}

package domain

import "strings"

// headerSep separates breadcrumb entries when an ordered header stack is
// flattened into a single metadata string value (Chunk.Metadata only holds
// strings).
const headerSep = "\x1f"

// EncodeHeaders flattens an ordered breadcrumb stack for storage under
// MetaKeyHeaders.
func EncodeHeaders(headers []string) string {
	return strings.Join(headers, headerSep)
}

// DecodeHeaders recovers the ordered breadcrumb stack EncodeHeaders wrote.
func DecodeHeaders(encoded string) []string {
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, headerSep)
}

// HeaderBreadcrumb renders headers the way Context Strategy's "Section:"
// line does: "A > B > C".
func HeaderBreadcrumb(headers []string) string {
	return strings.Join(headers, " > ")
}

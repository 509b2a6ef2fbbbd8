// Package engerr provides the structured error type shared across the
// knowledge base engine. Lookup, validation, media and schema failures use
// the kinds enumerated here; lower-level failures (SQL, embedding calls)
// are returned as plain fmt-wrapped errors.
package engerr

// Kind is a closed sum type identifying the shape of an engine error.
type Kind string

const (
	// KindNotFound: entity/id lookup missed.
	KindNotFound Kind = "NOT_FOUND"
	// KindInvalidInput: caller-supplied value failed validation.
	KindInvalidInput Kind = "INVALID_INPUT"
	// KindFileNotFound: a referenced path does not exist on disk.
	KindFileNotFound Kind = "FILE_NOT_FOUND"
	// KindDependencyMissing: an external binary/extension required for a
	// media step is not installed.
	KindDependencyMissing Kind = "DEPENDENCY_MISSING"
	// KindMediaProcessingError: retry budget exhausted or a non-retryable
	// provider error from an analyzer/embedder.
	KindMediaProcessingError Kind = "MEDIA_PROCESSING_ERROR"
	// KindSchemaError: store corruption or extension load failure.
	KindSchemaError Kind = "SCHEMA_ERROR"
	// KindProcessingStepError: a non-optional media pipeline step failed.
	KindProcessingStepError Kind = "PROCESSING_STEP_ERROR"
)

// Severity captures how an error should be handled by a caller,
// independent of its Kind.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

func severityFor(kind Kind) Severity {
	switch kind {
	case KindSchemaError:
		return SeverityFatal
	case KindMediaProcessingError, KindProcessingStepError:
		return SeverityWarning
	default:
		return SeverityError
	}
}

func retryableFor(kind Kind) bool {
	return kind == KindMediaProcessingError
}

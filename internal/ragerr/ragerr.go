// Package ragerr defines SmartRAG's error-kind taxonomy (spec.md §7) as
// sentinel errors, compared with errors.Is and wrapped with fmt.Errorf the
// way the teacher repo wraps driver/network errors throughout
// (unified-rag-service, document-chunker, legal-gateway).
package ragerr

import "errors"

var (
	// ErrInvalidInput: empty query, unknown tag, malformed configuration.
	// Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable: document or conversation backend failed after
	// the configured retry policy was exhausted.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrProviderUnavailable: embedding or LLM backend failed after
	// retries. EnableFallbackProviders governs whether the caller should
	// try the next configured provider.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrSqlGenerationFailed: the SQL validator rejected both generation
	// attempts.
	ErrSqlGenerationFailed = errors.New("sql generation failed")

	// ErrSqlExecutionFailed: a driver-level error after sanitization.
	ErrSqlExecutionFailed = errors.New("sql execution failed")

	// ErrCancelled: deadline exceeded or explicit cancellation. Terminal;
	// callers must not mutate session state afterward.
	ErrCancelled = errors.New("cancelled")

	// ErrParserFailed: an external parser rejected one document; other
	// documents in the same batch still succeed.
	ErrParserFailed = errors.New("parser failed")

	// ErrInvalidConfiguration: no backends available at all.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// WithDialect annotates ErrSqlGenerationFailed with the dialect name
// without leaking connection strings or paths (spec.md §7).
func WithDialect(dialect string) error {
	return &dialectErr{dialect: dialect}
}

type dialectErr struct{ dialect string }

func (e *dialectErr) Error() string {
	return "sql generation failed for dialect " + e.dialect
}

func (e *dialectErr) Unwrap() error { return ErrSqlGenerationFailed }

package pipeline

import "errors"

// Sentinel errors returned (always wrapped with %w and call-site context)
// from Run when a collaborator misbehaves. Non-fatal conditions the core
// recovers from on its own — a skipped non-monotonic frame, a scene cut, a
// degenerate physics fit — never produce one of these; they are counted on
// ProcessingStats instead.
var (
	ErrDecodeFailed = errors.New("pipeline: decoder failed")
	ErrDetectFailed = errors.New("pipeline: detector failed")
)

package segment

// Config holds the padding, merge, and minimum-duration thresholds used to
// turn a rally start/end event stream into output intervals. Zero-value
// Config is invalid; use DefaultConfig.
type Config struct {
	PrePad      float64
	PostPad     float64
	MergeGap    float64
	MinDuration float64
}

// DefaultConfig returns padding and merge thresholds that produce roughly
// half-second lead/trail padding and merge bursts within a second of each
// other, matching the behavior worked through in the pipeline's end-to-end
// scenarios.
func DefaultConfig() Config {
	return Config{
		PrePad:      0.5,
		PostPad:     0.5,
		MergeGap:    1.0,
		MinDuration: 1.0,
	}
}

package eval

// #region eval-config
// EvalConfig holds the tolerances for bundle validation.
type EvalConfig struct {
	Tolerance    float64 // allowed float drift for range and sum checks
	MinSumTotal  float64 // skip the sum-to-one check below this raw total
	CheckNarrate bool    // fail when the narrative fell back
}

// DefaultEvalConfig returns the tolerances used by replay and the daemon.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Tolerance:    1e-9,
		MinSumTotal:  0.01,
		CheckNarrate: true,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of bundle validation.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result

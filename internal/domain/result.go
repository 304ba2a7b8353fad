package domain

import "time"

type CheckStatus string

const (
	StatusSuccess CheckStatus = "success"
	StatusFailed  CheckStatus = "failed"
)

type CheckResult struct {
	Type     CheckType              `json:"type"`
	Status   CheckStatus            `json:"status"`
	Reason   FailureReason          `json:"reason,omitempty"`
	Duration int64                  `json:"duration"`
	Error    string                 `json:"error,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

func (r CheckResult) OK() bool {
	return r.Status == StatusSuccess
}

// Report is the outcome of one check cycle. It is rebuilt from scratch on
// every cycle.
type Report struct {
	ID         string        `json:"report_id"`
	AgentID    string        `json:"agent_id"`
	Healthy    bool          `json:"healthy"`
	Results    []CheckResult `json:"results"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Failed returns the results that did not pass.
func (r Report) Failed() []CheckResult {
	var failed []CheckResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

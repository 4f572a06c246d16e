package health

// Status represents overall store health.
type Status string

const (
	StatusOK       Status = "OK"
	StatusDegraded Status = "DEGRADED"
	StatusCritical Status = "CRITICAL"
)

// Report is the health summary surfaced by the HEALTH command.
type Report struct {
	OverallStatus   Status   `json:"overall_status"`
	Summary         string   `json:"summary"`
	Signals         []string `json:"signals"`
	Recommendations []string `json:"recommendations"`
}

package health

import (
	"strings"

	"snapkv/internal/logs"
	"snapkv/internal/metrics"
)

// Analyzer converts metrics + recent logs into a health report.
type Analyzer struct {
	metrics *metrics.Registry
	logger  *logs.Logger
	rules   []Rule
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(
	reg *metrics.Registry,
	logger *logs.Logger,
) *Analyzer {
	return &Analyzer{
		metrics: reg,
		logger:  logger,
		rules: []Rule{
			SaveFailureRule,
			MissRateRule,
			ExpirationChurnRule,
		},
	}
}

// Analyze evaluates metrics and logs and returns a health report.
func (a *Analyzer) Analyze() Report {
	snapshot := a.metrics.Snapshot()

	var (
		signals         = []string{}
		recommendations = []string{}
		status          = StatusOK
	)

	/* ---------- METRICS-BASED RULES ---------- */

	for _, rule := range a.rules {
		result := rule(snapshot)
		if !result.Triggered {
			continue
		}

		signals = append(signals, result.Signal)
		recommendations = append(recommendations, result.Recommendation)

		// Escalate status
		if result.Severity == StatusCritical {
			status = StatusCritical
		} else if result.Severity == StatusDegraded && status == StatusOK {
			status = StatusDegraded
		}
	}

	/* ---------- LOG-BASED SIGNALS ---------- */

	logEntries := a.logger.GetLast(100)

	saveFailures := 0
	corruptLoads := 0

	for _, entry := range logEntries {
		if entry.Level == logs.WARN &&
			strings.Contains(entry.Message, "snapshot save failed") {
			saveFailures++
		}

		if entry.Level == logs.ERROR &&
			strings.Contains(entry.Message, "corrupt") {
			corruptLoads++
		}
	}

	if saveFailures >= 3 {
		signals = append(signals,
			"Repeated snapshot save failures in recent logs",
		)
		recommendations = append(recommendations,
			"Verify the snapshot directory exists and has free space",
		)
		if status == StatusOK {
			status = StatusDegraded
		}
	}

	if corruptLoads > 0 {
		signals = append(signals,
			"A corrupt snapshot was encountered on load",
		)
		recommendations = append(recommendations,
			"Inspect the snapshot file; the store started from the in-memory state",
		)
		status = StatusCritical
	}

	/* ---------- SUMMARY ---------- */

	summary := "Store is healthy"
	if status != StatusOK {
		summary = "Store health issues detected"
	}

	return Report{
		OverallStatus:   status,
		Summary:         summary,
		Signals:         signals,
		Recommendations: recommendations,
	}
}

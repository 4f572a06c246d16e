package health

import "snapkv/internal/metrics"

// RuleResult represents the outcome of a single rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       Status
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

// ---------- RULES ----------

// Failed snapshot saves mean mutations are not reaching disk.
func SaveFailureRule(snapshot map[string]int64) RuleResult {
	failures := snapshot[string(metrics.SnapshotSaveFailuresTotal)]

	if failures > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Snapshot save failures detected",
			Recommendation: "Check the snapshot path and filesystem permissions",
			Severity:       StatusCritical,
		}
	}
	return RuleResult{}
}

// A high miss rate suggests keys expire faster than the workload expects.
func MissRateRule(snapshot map[string]int64) RuleResult {
	gets := snapshot[string(metrics.StoreGetsTotal)]
	misses := snapshot[string(metrics.StoreMissesTotal)]

	if gets >= 10 && misses*2 > gets {
		return RuleResult{
			Triggered:      true,
			Signal:         "More than half of reads miss",
			Recommendation: "Review key ttls and the configured default ttl",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// Heavy expiration churn relative to writes points at too-short ttls.
func ExpirationChurnRule(snapshot map[string]int64) RuleResult {
	sets := snapshot[string(metrics.StoreSetsTotal)]
	expired := snapshot[string(metrics.StoreExpiredTotal)]

	if sets >= 10 && expired*2 > sets {
		return RuleResult{
			Triggered:      true,
			Signal:         "Most written keys expire before rewrite",
			Recommendation: "Increase ttls or disable the default ttl for long-lived keys",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

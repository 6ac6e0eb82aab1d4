package observability

import "time"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// ObserveBackendCall records one backend call. Use it with defer:
//
//	defer observability.ObserveBackendCall("documents.list", time.Now(), &err)
func ObserveBackendCall(operation string, started time.Time, errp *error) {
	outcome := OutcomeSuccess
	if errp != nil && *errp != nil {
		outcome = OutcomeFailure
	}
	BackendCalls().WithLabelValues(operation, outcome).Inc()
	BackendLatency().WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

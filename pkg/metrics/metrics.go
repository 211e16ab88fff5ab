package metrics

import (
	"k8s.io/component-base/metrics"
	"k8s.io/component-base/metrics/legacyregistry"
)

const (
	resourceServerSubsystem = "openshift_resource_server"
)

// Permission lookup results.
const (
	SuccessResult = "success"
	FailResult    = "failure"
	SkippedResult = "skipped"
	CachedResult  = "cached"
)

var (
	permissionLookupTotal = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem: resourceServerSubsystem,
			Name:      "permission_lookup_total",
			Help:      "Counts project permission lookups by provider and result",
		}, []string{"provider", "result"},
	)
	authorizationTotal = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem: resourceServerSubsystem,
			Name:      "authorization_total",
			Help:      "Counts authorization decisions by provider and decision",
		}, []string{"provider", "decision"},
	)
)

func init() {
	legacyregistry.MustRegister(permissionLookupTotal)
	legacyregistry.MustRegister(authorizationTotal)
}

func RecordPermissionLookup(provider, result string) {
	permissionLookupTotal.WithLabelValues(provider, result).Inc()
}

func RecordAuthorization(provider, decision string) {
	authorizationTotal.WithLabelValues(provider, decision).Inc()
}

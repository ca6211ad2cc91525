package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed tracks records by terminal outcome (completed,
	// skipped, failed).
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvebot_records_total",
			Help: "Records handled, by outcome",
		},
		[]string{"outcome"},
	)

	// ApproversSubmitted counts successful approver submissions.
	ApproversSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "approvebot_approvers_submitted_total",
			Help: "Approver submissions that succeeded",
		},
	)

	// RetriesTotal counts retry attempts per nesting level (inner, outer).
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvebot_retries_total",
			Help: "Retry attempts, by nesting level",
		},
		[]string{"level"},
	)

	// DriverErrors counts driver failures by class (transient, structural).
	DriverErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvebot_driver_errors_total",
			Help: "Driver failures, by classification",
		},
		[]string{"class"},
	)

	// CompletedKeys tracks the size of the completed set in the checkpoint.
	CompletedKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "approvebot_completed_keys",
			Help: "Number of fully completed records in the checkpoint",
		},
	)

	// InProgressKeys tracks the number of unfinished in-flight records.
	InProgressKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "approvebot_in_progress_keys",
			Help: "Number of unfinished records with a saved position",
		},
	)
)

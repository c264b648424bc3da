package authsdk

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics receives coordinator events. Use NewPrometheusMetrics or leave it
// unset for a no-op.
type Metrics interface {
	// RecordOperation records a finished operation; code is empty on success.
	RecordOperation(op string, code ErrorCode)
	RecordRefresh(trigger string, ok bool)
	RecordStateChange(state State)
}

type nopMetrics struct{}

func (nopMetrics) RecordOperation(string, ErrorCode) {}
func (nopMetrics) RecordRefresh(string, bool)        {}
func (nopMetrics) RecordStateChange(State)           {}

// Refresh triggers.
const (
	RefreshTriggerTimer  = "timer"
	RefreshTriggerManual = "manual"
)

// PrometheusMetrics is the Prometheus implementation of Metrics.
type PrometheusMetrics struct {
	operations   *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	stateChanges *prometheus.CounterVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkit_operations_total",
			Help: "Authentication operations by operation and result code",
		}, []string{"op", "code"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkit_token_refresh_total",
			Help: "Token refresh attempts by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkit_state_changes_total",
			Help: "Session state transitions by target state",
		}, []string{"state"}),
	}

	reg.MustRegister(m.operations, m.refreshes, m.stateChanges)
	return m
}

func (m *PrometheusMetrics) RecordOperation(op string, code ErrorCode) {
	label := string(code)
	if label == "" {
		label = "OK"
	}
	m.operations.WithLabelValues(op, label).Inc()
}

func (m *PrometheusMetrics) RecordRefresh(trigger string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.refreshes.WithLabelValues(trigger, outcome).Inc()
}

func (m *PrometheusMetrics) RecordStateChange(state State) {
	m.stateChanges.WithLabelValues(string(state)).Inc()
}

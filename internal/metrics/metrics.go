// Package metrics defines the Prometheus metrics emitted by the account
// security core. It is the single source of truth for metric names, labels,
// and help strings. Metrics register themselves with the default registry
// via promauto; exposing them over HTTP is the embedding application's job.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accountcore"

// LoginAttemptsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid" (bad username or password), or "locked"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, labelled by outcome.",
	},
	[]string{"result"},
)

// AccountLockoutsTotal counts the moments an account crosses the failure
// threshold and enters a lockout window.
var AccountLockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_lockouts_total",
		Help:      "Total number of accounts entering a lockout window.",
	},
)

// UploadsTotal counts file submissions by outcome.
// Label:
//   - result: "stored", "rejected" (no file or disallowed extension), or
//     "error" (storage failure after validation)
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of upload submissions, labelled by outcome.",
	},
	[]string{"result"},
)

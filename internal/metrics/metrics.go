package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignInAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storereview_auth", Name: "signin_attempts_total", Help: "Number of sign-in attempts by provider and outcome."},
		[]string{"provider", "outcome"},
	)
	JWKSRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storereview_auth", Name: "jwks_refresh_total", Help: "Number of signing key set fetches by result."},
		[]string{"result"},
	)
	AccountLinkConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "storereview_auth", Name: "account_link_conflicts_total", Help: "Number of uniqueness conflicts hit while linking accounts."},
	)
)

// sign-in の結果ラベル
const (
	OutcomeSuccess = "success"
	OutcomeNewUser = "new_user"
	OutcomeFailure = "failure"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(SignInAttempts)
	reg.MustRegister(JWKSRefreshes)
	reg.MustRegister(AccountLinkConflicts)
}

package auth

import (
	"errors"

	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	stageRequestToken = "request_token"
	stageAccessToken  = "access_token"
	stageIdentity     = "identity"
	stageCallback     = "callback"
)

// Metrics counts login steps by outcome. A nil *Metrics records nothing.
type Metrics struct {
	logins *prometheus.CounterVec
}

// NewMetrics registers the login collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		logins: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vinylogger_login_steps_total",
				Help: "Login steps by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
	}
}

func (m *Metrics) observe(stage string, err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(stage, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrCallbackValidation):
		return "invalid_callback"
	case errors.Is(err, apperrors.ErrCallbackNotConfirmed):
		return "callback_not_confirmed"
	case errors.Is(err, apperrors.ErrUpstreamAuth):
		return "upstream_error"
	default:
		return "error"
	}
}

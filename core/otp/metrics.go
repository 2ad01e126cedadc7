package otp

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	issuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edugate",
		Name:      "otp_issued_total",
		Help:      "Codes issued, by purpose.",
	}, []string{"purpose"})

	verifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edugate",
		Name:      "otp_verified_total",
		Help:      "Code verifications, by purpose and result.",
	}, []string{"purpose", "result"})
)

func observe(purpose Purpose, err error) {
	result := "ok"
	switch errors.Cause(err) {
	case nil:
	case ErrNotFound:
		result = "not_found"
	case ErrMismatch:
		result = "mismatch"
	case ErrExpired:
		result = "expired"
	default:
		result = "error"
	}
	verifiedTotal.WithLabelValues(string(purpose), result).Inc()
}

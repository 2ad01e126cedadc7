// Package auth drives the code-gated flows: registration, login and parent-child linking.
package auth

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/otp"
)

var (
	registeredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edugate",
		Name:      "registrations_total",
		Help:      "Completed registrations, by role and outcome (created or upgraded).",
	}, []string{"role", "outcome"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edugate",
		Name:      "logins_total",
		Help:      "Issued sessions, by login method and session role.",
	}, []string{"method", "role"})
)

// checkAddress validates a bare email input, reporting it under field.
func checkAddress(validate *validator.Validate, field, address string) error {
	if address == "" {
		return core.NewValidationError(errors.New(field+" is required"), core.FieldError{Field: field, Error: "this field is required"})
	}
	if err := validate.Var(address, "email"); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: field, Error: "must be a valid email address"})
	}
	return nil
}

// checkCode maps ledger verification failures to the single error clients see.
func checkCode(err error) error {
	if err == nil {
		return nil
	}
	if otp.IsInvalidCode(err) {
		return core.ErrInvalidOrExpiredCode
	}
	return core.NewStoreError(err, "verifying code")
}

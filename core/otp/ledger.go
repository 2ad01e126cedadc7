// Package otp issues and verifies single-use, time-boxed numeric codes.
//
// Entries are keyed by (purpose, address): a code issued for one purpose never satisfies another,
// a new code for the same key replaces the pending one, a successful verification consumes it,
// and expiry is only checked when a code is verified.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
)

type Purpose string

const (
	PurposeRegistration      Purpose = "registration"
	PurposeLogin             Purpose = "login"
	PurposeChildVerification Purpose = "child-verification"
	// PurposeChildLink holds attestations that a child address approved a parent link.
	PurposeChildLink Purpose = "child-link"

	CodeLength = 6

	attestationCode = "attested"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("no pending code")
	ErrMismatch = errors.New("code mismatch")
	ErrExpired  = errors.New("code expired")

	codeUpperBound = big.NewInt(1_000_000)
)

// Entry is a pending code.
type Entry struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e Entry) ExpiredAt(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store is the backing of a Ledger. It may live in-process or in an external expiring key-value store.
type Store interface {
	// Put stores entry, replacing any pending entry for the same key.
	Put(ctx context.Context, purpose Purpose, address string, entry Entry) error
	// Get returns ErrNotFound when there is no entry.
	Get(ctx context.Context, purpose Purpose, address string) (Entry, error)
	// Take atomically checks code and deletes the entry on success.
	// It returns ErrNotFound, ErrMismatch (entry kept) or ErrExpired (entry removed).
	// Of concurrent callers, at most one succeeds.
	Take(ctx context.Context, purpose Purpose, address, code string, now time.Time) error
	Delete(ctx context.Context, purpose Purpose, address string) error
}

// TTLs maps each purpose to the lifetime of its codes.
type TTLs map[Purpose]time.Duration

func DefaultTTLs() TTLs {
	return TTLs{
		PurposeRegistration:      3 * time.Minute,
		PurposeLogin:             2 * time.Minute,
		PurposeChildVerification: 3 * time.Minute,
		PurposeChildLink:         15 * time.Minute,
	}
}

func TTLsFromConfig(conf core.OTPConfig) TTLs {
	ttls := DefaultTTLs()
	for purpose, ttl := range map[Purpose]time.Duration{
		PurposeRegistration:      conf.RegistrationTTL,
		PurposeLogin:             conf.LoginTTL,
		PurposeChildVerification: conf.ChildVerificationTTL,
		PurposeChildLink:         conf.ChildLinkTTL,
	} {
		if ttl > 0 {
			ttls[purpose] = ttl
		}
	}
	return ttls
}

type Ledger struct {
	store Store
	ttls  TTLs
}

func NewLedger(store Store, ttls TTLs) *Ledger {
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	return &Ledger{store: store, ttls: ttls}
}

func (l *Ledger) TTL(purpose Purpose) time.Duration {
	return l.ttls[purpose]
}

// Issue generates a code for address, replacing any pending one for the same purpose.
func (l *Ledger) Issue(ctx context.Context, purpose Purpose, address string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", errors.Wrap(err, "generating code")
	}
	now := NowFunc()
	entry := Entry{Code: code, CreatedAt: now, ExpiresAt: now.Add(l.ttls[purpose])}
	if err := l.store.Put(ctx, purpose, core.NormalizeEmail(address), entry); err != nil {
		return "", errors.Wrap(err, "storing code")
	}
	issuedTotal.WithLabelValues(string(purpose)).Inc()
	return code, nil
}

// Verify consumes the pending code. Failures are ErrNotFound, ErrMismatch or ErrExpired; see IsInvalidCode.
func (l *Ledger) Verify(ctx context.Context, purpose Purpose, address, code string) error {
	err := l.store.Take(ctx, purpose, core.NormalizeEmail(address), code, NowFunc())
	observe(purpose, err)
	return err
}

// Check is Verify without consuming the code.
func (l *Ledger) Check(ctx context.Context, purpose Purpose, address, code string) error {
	entry, err := l.store.Get(ctx, purpose, core.NormalizeEmail(address))
	if err == nil {
		switch {
		case entry.Code != code:
			err = ErrMismatch
		case entry.ExpiredAt(NowFunc()):
			err = ErrExpired
		}
	}
	observe(purpose, err)
	return err
}

// Attest records that address approved a link. Attestations live in PurposeChildLink.
func (l *Ledger) Attest(ctx context.Context, address string) error {
	now := NowFunc()
	entry := Entry{Code: attestationCode, CreatedAt: now, ExpiresAt: now.Add(l.ttls[PurposeChildLink])}
	return errors.Wrap(l.store.Put(ctx, PurposeChildLink, core.NormalizeEmail(address), entry), "storing attestation")
}

func (l *Ledger) CheckAttestation(ctx context.Context, address string) error {
	return l.Check(ctx, PurposeChildLink, address, attestationCode)
}

func (l *Ledger) ConsumeAttestation(ctx context.Context, address string) error {
	return l.Verify(ctx, PurposeChildLink, address, attestationCode)
}

// IsInvalidCode reports whether err is one of the verification failures.
func IsInvalidCode(err error) bool {
	switch errors.Cause(err) {
	case ErrNotFound, ErrMismatch, ErrExpired:
		return true
	}
	return false
}

// GenerateCode returns a fixed-width decimal code, uniform over 000000-999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeUpperBound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

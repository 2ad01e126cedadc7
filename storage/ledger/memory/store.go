// Package memledger is an in-process otp.Store for single-instance deployments and tests.
package memledger

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/edugate/core/otp"
)

type key struct {
	purpose otp.Purpose
	address string
}

type store struct {
	mu      sync.Mutex
	entries map[key]otp.Entry
}

var _ otp.Store = (*store)(nil) // interface compliance check

func NewStore() otp.Store {
	return &store{entries: make(map[key]otp.Entry)}
}

func (s *store) Put(_ context.Context, purpose otp.Purpose, address string, entry otp.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key{purpose, address}] = entry
	return nil
}

func (s *store) Get(_ context.Context, purpose otp.Purpose, address string) (otp.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key{purpose, address}]; ok {
		return entry, nil
	}
	return otp.Entry{}, otp.ErrNotFound
}

func (s *store) Take(_ context.Context, purpose otp.Purpose, address, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{purpose, address}
	entry, ok := s.entries[k]
	if !ok {
		return otp.ErrNotFound
	}
	if entry.Code != code {
		return otp.ErrMismatch
	}
	delete(s.entries, k)
	if entry.ExpiredAt(now) {
		return otp.ErrExpired
	}
	return nil
}

func (s *store) Delete(_ context.Context, purpose otp.Purpose, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key{purpose, address})
	return nil
}

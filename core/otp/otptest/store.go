// Package otptest holds the behaviour every otp.Store backing must have.
package otptest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edugate/core/otp"
)

// RunStoreTests runs the shared store contract against stores built by newStore.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) otp.Store) {
	ctx := context.Background()
	now := time.Now()
	entry := func(code string, ttl time.Duration) otp.Entry {
		return otp.Entry{Code: code, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	}

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, otp.PurposeLogin, "nobody@x.com")
		assert.Equal(t, otp.ErrNotFound, err)
	})

	t.Run("take outcomes", func(t *testing.T) {
		tests := []struct {
			name      string
			stored    *otp.Entry
			code      string
			at        time.Time
			wantErr   error
			wantAfter error // Get result after Take
		}{
			{name: "not found", code: "123456", at: now, wantErr: otp.ErrNotFound, wantAfter: otp.ErrNotFound},
			{name: "mismatch keeps entry", stored: ptr(entry("123456", time.Minute)), code: "654321", at: now, wantErr: otp.ErrMismatch, wantAfter: nil},
			{name: "expired removes entry", stored: ptr(entry("123456", time.Minute)), code: "123456", at: now.Add(2 * time.Minute), wantErr: otp.ErrExpired, wantAfter: otp.ErrNotFound},
			{name: "valid removes entry", stored: ptr(entry("123456", time.Minute)), code: "123456", at: now.Add(30 * time.Second), wantAfter: otp.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := newStore(t)
				if tt.stored != nil {
					require.NoError(t, s.Put(ctx, otp.PurposeRegistration, "a@x.com", *tt.stored))
				}
				assert.Equal(t, tt.wantErr, s.Take(ctx, otp.PurposeRegistration, "a@x.com", tt.code, tt.at))
				_, err := s.Get(ctx, otp.PurposeRegistration, "a@x.com")
				assert.Equal(t, tt.wantAfter, err)
			})
		}
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, otp.PurposeRegistration, "a@x.com", entry("111111", time.Minute)))
		require.NoError(t, s.Put(ctx, otp.PurposeRegistration, "a@x.com", entry("222222", time.Minute)))
		assert.Equal(t, otp.ErrMismatch, s.Take(ctx, otp.PurposeRegistration, "a@x.com", "111111", now))
		assert.NoError(t, s.Take(ctx, otp.PurposeRegistration, "a@x.com", "222222", now))
	})

	t.Run("purposes are isolated", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, otp.PurposeRegistration, "a@x.com", entry("111111", time.Minute)))
		assert.Equal(t, otp.ErrNotFound, s.Take(ctx, otp.PurposeLogin, "a@x.com", "111111", now))
		assert.Equal(t, otp.ErrNotFound, s.Take(ctx, otp.PurposeChildVerification, "a@x.com", "111111", now))
		assert.NoError(t, s.Take(ctx, otp.PurposeRegistration, "a@x.com", "111111", now))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, otp.PurposeLogin, "a@x.com", entry("111111", time.Minute)))
		require.NoError(t, s.Delete(ctx, otp.PurposeLogin, "a@x.com"))
		assert.Equal(t, otp.ErrNotFound, s.Take(ctx, otp.PurposeLogin, "a@x.com", "111111", now))
		assert.NoError(t, s.Delete(ctx, otp.PurposeLogin, "a@x.com"))
	})

	t.Run("concurrent take succeeds once", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, otp.PurposeLogin, "a@x.com", entry("123456", time.Minute)))

		var wins, misses int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				switch s.Take(ctx, otp.PurposeLogin, "a@x.com", "123456", now) {
				case nil:
					atomic.AddInt32(&wins, 1)
				case otp.ErrNotFound:
					atomic.AddInt32(&misses, 1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins)
		assert.Equal(t, int32(15), misses)
	})
}

func ptr(e otp.Entry) *otp.Entry { return &e }

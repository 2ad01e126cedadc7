package redisledger

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/otp"
	"github.com/trezcool/edugate/core/otp/otptest"
)

// Needs a live Redis: TEST_REDIS_ADDR=localhost:6379 go test ./storage/ledger/redis/...
func TestStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewClient(context.Background(), core.RedisConfig{Addr: addr, PoolSize: 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var n int
	otptest.RunStoreTests(t, func(t *testing.T) otp.Store {
		n++
		prefix := fmt.Sprintf("edugate-test-%d", n)
		t.Cleanup(func() {
			keys, _ := client.Keys(context.Background(), prefix+":*").Result()
			if len(keys) > 0 {
				client.Del(context.Background(), keys...)
			}
		})
		return NewStore(client, prefix)
	})
}

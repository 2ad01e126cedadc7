package memledger

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/trezcool/edugate/core/otp"
	"github.com/trezcool/edugate/core/otp/otptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStore(t *testing.T) {
	otptest.RunStoreTests(t, func(t *testing.T) otp.Store { return NewStore() })
}

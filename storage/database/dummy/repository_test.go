package dummydb

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/account/accounttest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRepositories(t *testing.T) {
	accounttest.RunRepositoryTests(t, func(t *testing.T) (account.Repository, account.AdminRepository) {
		db := Open()
		return NewAccountRepository(db), NewAdminRepository(db)
	})
}

package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/edugate/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.emailTaken(acc.Email, acc.ID) {
		return account.Account{}, account.ErrEmailExists
	}
	repo.db.accounts[acc.ID] = &acc
	return acc, nil
}

func (repo *accountRepository) GetAccount(_ context.Context, filter account.GetFilter) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, acc := range repo.db.accounts {
		if filter.ID != "" && acc.ID != filter.ID {
			continue
		}
		if filter.Email != "" && !strings.EqualFold(acc.Email, filter.Email) {
			continue
		}
		if filter.Role != "" && acc.Role != filter.Role {
			continue
		}
		return *acc, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.accounts[acc.ID]; !ok {
		return account.Account{}, account.ErrNotFound
	}
	if repo.db.emailTaken(acc.Email, acc.ID) {
		return account.Account{}, account.ErrEmailExists
	}
	repo.db.accounts[acc.ID] = &acc
	return acc, nil
}

func (repo *accountRepository) DeleteAccountByEmail(_ context.Context, email string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	acc := repo.db.accountByEmail(email)
	if acc == nil {
		return account.ErrNotFound
	}
	delete(repo.db.accounts, acc.ID)
	return nil
}

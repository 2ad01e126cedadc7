package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
)

type adminRepository struct {
	db *DB
}

var _ account.AdminRepository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *DB) account.AdminRepository {
	return &adminRepository{db: db}
}

func (repo *adminRepository) CreateAdmin(_ context.Context, adm account.Admin) (account.Admin, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.emailTaken(adm.Email, adm.ID) {
		return account.Admin{}, account.ErrEmailExists
	}
	repo.db.admins[adm.ID] = &adm
	return adm, nil
}

func (repo *adminRepository) GetAdmin(_ context.Context, filter account.AdminFilter) (account.Admin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, adm := range repo.db.admins {
		if filter.ID != "" && adm.ID != filter.ID {
			continue
		}
		if filter.Email != "" && !strings.EqualFold(adm.Email, filter.Email) {
			continue
		}
		return *adm, nil
	}
	return account.Admin{}, account.ErrAdminNotFound
}

func adminLess(a, b account.Admin, ord core.DBOrdering) (less, equal bool) {
	var x, y string
	switch ord.Field {
	case "name":
		x, y = a.Name, b.Name
	case "email":
		x, y = a.Email, b.Email
	default: // created_at
		if a.CreatedAt.Equal(b.CreatedAt) {
			return false, true
		}
		return a.CreatedAt.Before(b.CreatedAt) == ord.Ascending, false
	}
	if x == y {
		return false, true
	}
	return (x < y) == ord.Ascending, false
}

// QueryAdmins defaults to creation order.
func (repo *adminRepository) QueryAdmins(_ context.Context, ordering []core.DBOrdering) ([]account.Admin, error) {
	repo.db.RLock()
	admins := make([]account.Admin, 0, len(repo.db.admins))
	for _, adm := range repo.db.admins {
		admins = append(admins, *adm)
	}
	repo.db.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	sort.SliceStable(admins, func(i, j int) bool {
		for _, ord := range ordering {
			if less, equal := adminLess(admins[i], admins[j], ord); !equal {
				return less
			}
		}
		return admins[i].Email < admins[j].Email
	})
	return admins, nil
}

func (repo *adminRepository) UpdateAdmin(_ context.Context, adm account.Admin) (account.Admin, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.admins[adm.ID]; !ok {
		return account.Admin{}, account.ErrAdminNotFound
	}
	if repo.db.emailTaken(adm.Email, adm.ID) {
		return account.Admin{}, account.ErrEmailExists
	}
	repo.db.admins[adm.ID] = &adm
	return adm, nil
}

func (repo *adminRepository) DeleteAdminByEmail(_ context.Context, email string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	adm := repo.db.adminByEmail(email)
	if adm == nil {
		return account.ErrAdminNotFound
	}
	delete(repo.db.admins, adm.ID)
	return nil
}

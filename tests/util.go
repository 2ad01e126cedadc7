package testutil

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/edugate/core/account"
)

var codeRegex = regexp.MustCompile(`\b\d{6}\b`)

func CreateAccount(
	t *testing.T,
	repo account.Repository,
	name, email, pwd string,
	role account.Role,
	childEmail string,
	createdAt ...time.Time,
) account.Account {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	acc := account.Account{
		ID:         uuid.New().String(),
		Name:       name,
		Email:      email,
		Role:       role,
		ChildEmail: childEmail,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	if pwd != "" {
		if err := acc.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

func CreateAdmin(
	t *testing.T,
	repo account.AdminRepository,
	name, email, pwd string,
	isSuper bool,
	createdAt ...time.Time,
) account.Admin {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	adm := account.Admin{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		IsSuperAdmin: isSuper,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	if pwd != "" {
		if err := adm.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAdmin() failed: %v", err)
		}
	}
	adm, err := repo.CreateAdmin(context.Background(), adm)
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return adm
}

// FindCode extracts the 6-digit code from a rendered message body.
func FindCode(t *testing.T, body string) string {
	code := codeRegex.FindString(body)
	if code == "" {
		t.Fatalf("FindCode(): no code in %q", body)
	}
	return code
}

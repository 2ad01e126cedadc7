// Package dummydb keeps accounts in process memory. Used in tests and the "memory" database backend.
package dummydb

import (
	"strings"
	"sync"

	"github.com/trezcool/edugate/core/account"
)

// DB holds both tables under one lock: an email belongs to at most one account or admin.
type DB struct {
	sync.RWMutex
	accounts map[string]*account.Account // {id: Account}
	admins   map[string]*account.Admin   // {id: Admin}
}

func Open() *DB {
	return &DB{
		accounts: make(map[string]*account.Account),
		admins:   make(map[string]*account.Admin),
	}
}

// Truncate empties every table.
func (db *DB) Truncate() {
	db.Lock()
	defer db.Unlock()
	db.accounts = make(map[string]*account.Account)
	db.admins = make(map[string]*account.Admin)
}

func (db *DB) accountByEmail(email string) *account.Account {
	for _, acc := range db.accounts {
		if strings.EqualFold(acc.Email, email) {
			return acc
		}
	}
	return nil
}

func (db *DB) adminByEmail(email string) *account.Admin {
	for _, adm := range db.admins {
		if strings.EqualFold(adm.Email, email) {
			return adm
		}
	}
	return nil
}

// emailTaken reports whether a record other than id holds email, in either table.
func (db *DB) emailTaken(email, id string) bool {
	if acc := db.accountByEmail(email); acc != nil && acc.ID != id {
		return true
	}
	if adm := db.adminByEmail(email); adm != nil && adm.ID != id {
		return true
	}
	return false
}

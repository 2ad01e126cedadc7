package account

import (
	"github.com/trezcool/edugate/core"
)

// Kind tells which store, if any, holds an address.
type Kind int

const (
	KindNone Kind = iota
	KindOrdinary
	KindPrivileged
)

// Resolution is the result of looking an address up in both stores.
type Resolution struct {
	Kind    Kind
	Account Account // set when Kind == KindOrdinary
	Admin   Admin   // set when Kind == KindPrivileged
}

// Role returns the session role of the resolved subject.
func (r Resolution) Role() Role {
	switch r.Kind {
	case KindOrdinary:
		return r.Account.Role
	case KindPrivileged:
		return RoleAdmin
	}
	return ""
}

func (r Resolution) IsSuper() bool {
	return r.Kind == KindPrivileged && r.Admin.IsSuperAdmin
}

const msgAdminReserved = "You cannot use this email. It is an admin ID. Please use a different email."

// registrationRule tells what an address already held by an ordinary account means for a new registration.
type registrationRule struct {
	// blockedBy lists the existing roles that make the address unavailable as soon as a code is requested.
	blockedBy []Role
	// upgrades lists the existing roles that are replaced in place when the registration completes.
	upgrades []Role
}

// registrationRules is keyed by requested role; "" is the generic registration.
// Existing roles found in neither list pass the code request but conflict on completion.
// Privileged addresses are always reserved.
var registrationRules = map[Role]registrationRule{
	RoleStudent: {blockedBy: []Role{RoleStudent, RoleTeacher}, upgrades: []Role{RoleParent}},
	RoleTeacher: {blockedBy: []Role{RoleStudent, RoleTeacher}, upgrades: []Role{RoleParent}},
	RoleParent:  {blockedBy: []Role{RoleStudent, RoleTeacher}},
	"":          {blockedBy: []Role{RoleStudent, RoleTeacher}},
}

func hasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func alreadyRegistered(role Role) error {
	return core.NewConflictError("Email already registered as " + string(role) + ".")
}

// CheckCodeRequest applies the registration policy before a code is issued.
func CheckCodeRequest(res Resolution, role Role) error {
	switch res.Kind {
	case KindPrivileged:
		return core.NewConflictError(msgAdminReserved)
	case KindOrdinary:
		if hasRole(registrationRules[role].blockedBy, res.Account.Role) {
			return alreadyRegistered(res.Account.Role)
		}
	}
	return nil
}

// CheckCompletion applies the registration policy right before an account is persisted.
// upgrade reports that the existing account must be converted in place instead of created.
func CheckCompletion(res Resolution, role Role) (upgrade bool, err error) {
	if err := CheckCodeRequest(res, role); err != nil {
		return false, err
	}
	if res.Kind != KindOrdinary {
		return false, nil
	}
	if hasRole(registrationRules[role].upgrades, res.Account.Role) {
		return true, nil
	}
	return false, alreadyRegistered(res.Account.Role)
}

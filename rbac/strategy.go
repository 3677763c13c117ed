package rbac

import (
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
)

// Roles known to the storefront.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Strategy defines the interface for authorization checks.
type Strategy interface {
	Roles(acct *identity.Account) []string
}

// BasicStrategy derives roles from the account's admin flag. Every account is
// a customer.
type BasicStrategy struct{}

func (BasicStrategy) Roles(acct *identity.Account) []string {
	if acct.IsAdmin {
		return []string{RoleCustomer, RoleAdmin}
	}
	return []string{RoleCustomer}
}

// HasRole reports whether acct holds role under s.
func HasRole(s Strategy, acct *identity.Account, role string) bool {
	if acct == nil {
		return false
	}
	for _, r := range s.Roles(acct) {
		if r == role {
			return true
		}
	}
	return false
}

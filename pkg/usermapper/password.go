package usermapper

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher computes the password hash stored on local records.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// BcryptHasher hashes with bcrypt. A zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

var _ PasswordHasher = BcryptHasher{}

func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

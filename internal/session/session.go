// Package session tracks the signed-in user for one run of the app.
package session

import "strings"

const (
	authKey = "isAuthenticated"
	userKey = "userEmail"
)

const minSecretLen = 6

// KV is the storage area the session lives in, normally a
// storage.Memory so state dies with the process.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}

type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) Login(identifier string) error {
	if err := s.kv.Set(authKey, "true"); err != nil {
		return err
	}
	return s.kv.Set(userKey, identifier)
}

func (s *Store) Logout() error {
	if err := s.kv.Remove(authKey); err != nil {
		return err
	}
	return s.kv.Remove(userKey)
}

// IsAuthenticated treats anything but a stored "true" as signed out.
func (s *Store) IsAuthenticated() bool {
	value, ok := s.kv.Get(authKey)
	return ok && value == "true"
}

func (s *Store) CurrentUser() (string, bool) {
	return s.kv.Get(userKey)
}

// Validate is a placeholder credential check: the identifier must contain
// an "@" and the secret must be at least six characters. It is a form
// gate, not a security boundary.
func Validate(identifier, secret string) bool {
	return strings.Contains(identifier, "@") && len(secret) >= minSecretLen
}

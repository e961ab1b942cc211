// Package auth implements the session login credential check: a
// stored 32-byte SHA-256 digest compared against the digest the
// client transmits, per spec §4.3.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// DigestSize is the length of a password digest in bytes.
const DigestSize = sha256.Size

// HashPassword reduces a plaintext password to its stored digest. An
// empty password hashes to the zero digest's counterpart and is never
// treated specially by this function — Verify handles the "unset
// credential" comparison.
func HashPassword(password string) [DigestSize]byte {
	return sha256.Sum256([]byte(password))
}

// Credential is a stored username/digest pair. A zero Digest means no
// password has been configured for the account.
type Credential struct {
	Username string
	Digest   [DigestSize]byte
}

// Verify reports whether username/digest matches the stored
// credential. An empty transmitted digest (all zero bytes) matches
// only an unset credential (also all zero bytes), per spec §4.3: "the
// stored password is a 32-byte digest; empty password is transmitted
// as zero bytes and compared against an unset credential."
func (c Credential) Verify(username string, digest [DigestSize]byte) bool {
	if username != c.Username {
		return false
	}
	return subtle.ConstantTimeCompare(c.Digest[:], digest[:]) == 1
}

// Store is an in-memory credential table keyed by username.
type Store struct {
	credentials map[string]Credential
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{credentials: make(map[string]Credential)}
}

// Set registers or replaces a credential.
func (s *Store) Set(c Credential) {
	s.credentials[c.Username] = c
}

// Verify checks username/digest against the stored credential table.
// An unknown username is compared against the zero credential so
// login timing does not reveal account existence.
func (s *Store) Verify(username string, digest [DigestSize]byte) bool {
	c, ok := s.credentials[username]
	if !ok {
		c = Credential{Username: username}
	}
	return c.Verify(username, digest)
}

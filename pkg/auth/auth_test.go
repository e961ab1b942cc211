package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyMatchingPassword(t *testing.T) {
	s := NewStore()
	s.Set(Credential{Username: "alice", Digest: HashPassword("hunter2")})

	assert.True(t, s.Verify("alice", HashPassword("hunter2")))
	assert.False(t, s.Verify("alice", HashPassword("wrong")))
}

func TestVerifyUnsetCredentialMatchesEmptyPassword(t *testing.T) {
	s := NewStore()
	s.Set(Credential{Username: "bob"})

	assert.True(t, s.Verify("bob", [DigestSize]byte{}))
	assert.False(t, s.Verify("bob", HashPassword("anything")))
}

func TestVerifyUnknownUsername(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Verify("nobody", HashPassword("x")))
	assert.True(t, s.Verify("nobody", [DigestSize]byte{}))
}

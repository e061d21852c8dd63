package auth

import (
	"strings"
	"testing"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	var h Hasher

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatal("Error:", err)
	}
	if strings.Contains(hash, "correct horse") {
		t.Fatal("hash contains plaintext")
	}
	if !h.Verify("correct horse battery staple", hash) {
		t.Fatal("correct password rejected")
	}
	if h.Verify("wrong password", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashIsSalted(t *testing.T) {
	t.Parallel()
	var h Hasher

	h1, err := h.Hash("pw1")
	if err != nil {
		t.Fatal("Error:", err)
	}
	h2, err := h.Hash("pw1")
	if err != nil {
		t.Fatal("Error:", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyGarbageHash(t *testing.T) {
	t.Parallel()
	var h Hasher
	if h.Verify("pw1", "not a bcrypt hash") {
		t.Fatal("garbage hash verified")
	}
}

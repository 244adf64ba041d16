package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashVerify(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("Secr3t!")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if digest == "Secr3t!" {
		t.Fatal("digest must never equal the plaintext")
	}

	if !hasher.Verify("Secr3t!", digest) {
		t.Fatal("expected password to verify")
	}
	if hasher.Verify("wrong", digest) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestPasswordHashCost(t *testing.T) {
	hasher := NewPasswordHasher(DefaultBcryptCost)
	digest, err := hasher.Hash("pw")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != DefaultBcryptCost {
		t.Fatalf("expected cost %d, got %d", DefaultBcryptCost, cost)
	}
}

func TestPasswordHasherRejectsBogusCost(t *testing.T) {
	hasher := NewPasswordHasher(99)
	if hasher.cost != DefaultBcryptCost {
		t.Fatalf("expected fallback to default cost, got %d", hasher.cost)
	}
}

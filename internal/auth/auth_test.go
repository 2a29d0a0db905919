package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected mismatch for wrong password")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	tok, err := SignJWT("user-1", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, err := ParseJWT(tok, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != "user-1" {
		t.Fatalf("expected user-1, got %q", uid)
	}

	if _, err := ParseJWT(tok, "other-secret"); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	tok, err := SignJWT("user-1", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(tok, "secret"); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

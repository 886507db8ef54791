package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLocalProvider_SignInRegistersAndAuthenticates(t *testing.T) {
	provider := NewLocalProvider()
	ctx := context.Background()

	first, err := provider.SignIn(ctx, "Misty@Example.com", "starmie")
	if err != nil {
		t.Fatalf("first sign-in failed: %v", err)
	}
	if first.Email != "misty@example.com" {
		t.Errorf("email not normalized: %q", first.Email)
	}

	again, err := provider.SignIn(ctx, "misty@example.com", "starmie")
	if err != nil {
		t.Fatalf("second sign-in failed: %v", err)
	}
	if again.UserID != first.UserID {
		t.Errorf("user id changed across sign-ins: %q vs %q", again.UserID, first.UserID)
	}

	if _, err := provider.SignIn(ctx, "misty@example.com", "psyduck"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLocalProvider_StoresPasswordHashed(t *testing.T) {
	provider := NewLocalProvider()
	ctx := context.Background()

	if _, err := provider.SignUp(ctx, "misty@example.com", "starmie"); err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}

	provider.mu.Lock()
	account := provider.accounts["misty@example.com"]
	provider.mu.Unlock()

	if len(account.hash) == 0 {
		t.Fatal("no credential stored")
	}
	if string(account.hash) == "starmie" {
		t.Fatal("password stored in the clear")
	}
	if !strings.HasPrefix(string(account.hash), "$2") {
		t.Errorf("stored credential is not a bcrypt hash: %q", account.hash)
	}
}

func TestLocalProvider_SignUpRejectsExisting(t *testing.T) {
	provider := NewLocalProvider()
	ctx := context.Background()

	if _, err := provider.SignUp(ctx, "brock@example.com", "onix"); err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	if _, err := provider.SignUp(ctx, "brock@example.com", "onix"); err == nil {
		t.Fatal("expected error for duplicate account")
	}
}

func TestLocalProvider_AnonymousSessionsAreDistinct(t *testing.T) {
	provider := NewLocalProvider()
	ctx := context.Background()

	a, err := provider.SignInAnonymously(ctx)
	if err != nil {
		t.Fatalf("anonymous sign-in failed: %v", err)
	}
	b, err := provider.SignInAnonymously(ctx)
	if err != nil {
		t.Fatalf("anonymous sign-in failed: %v", err)
	}
	if a.UserID == b.UserID {
		t.Error("anonymous sessions share a user id")
	}
	if !a.Anonymous {
		t.Error("session not marked anonymous")
	}
}

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/storage"
	"github.com/nattw/harnkan/internal/storage/sqlite"
)

func newTestLinker(t *testing.T) (*Linker, storage.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pinHash, err := HashPIN("1234")
	if err != nil {
		t.Fatalf("failed to hash PIN: %v", err)
	}
	err = store.CreateMember(context.Background(), &models.Member{
		Key:     "ALICE",
		PINHash: pinHash,
	})
	if err != nil {
		t.Fatalf("failed to create member: %v", err)
	}
	err = store.CreateMember(context.Background(), &models.Member{Key: "BOB"})
	if err != nil {
		t.Fatalf("failed to create member: %v", err)
	}

	tokens := NewTokenManager("test-secret-key-for-link-tokens", 10*time.Minute)
	return NewLinker(store, tokens), store
}

func TestLinkFlow(t *testing.T) {
	linker, store := newTestLinker(t)
	ctx := context.Background()

	token, err := linker.BeginLink(ctx, "alice", "1234")
	if err != nil {
		t.Fatalf("BeginLink failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	key, err := linker.ConfirmLink(ctx, token, "U-alice-123")
	if err != nil {
		t.Fatalf("ConfirmLink failed: %v", err)
	}
	if key != "ALICE" {
		t.Errorf("linked key = %q", key)
	}

	member, err := store.GetMemberByLineID(ctx, "U-alice-123")
	if err != nil {
		t.Fatalf("GetMemberByLineID failed: %v", err)
	}
	if member.Key != "ALICE" {
		t.Errorf("member = %+v", member)
	}
}

func TestBeginLink_Failures(t *testing.T) {
	linker, _ := newTestLinker(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		member  string
		pin     string
		wantErr error
	}{
		{"wrong PIN", "ALICE", "9999", ErrInvalidCredentials},
		{"unknown member", "MALLORY", "1234", ErrInvalidCredentials},
		{"no PIN configured", "BOB", "1234", ErrPINNotSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := linker.BeginLink(ctx, tt.member, tt.pin)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfirmLink_BadToken(t *testing.T) {
	linker, _ := newTestLinker(t)
	ctx := context.Background()

	if _, err := linker.ConfirmLink(ctx, "", "U-x"); !errors.Is(err, ErrMissingToken) {
		t.Errorf("err = %v, want ErrMissingToken", err)
	}
	if _, err := linker.ConfirmLink(ctx, "not-a-jwt", "U-x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}

	// Token signed with a different secret must be rejected.
	other := NewTokenManager("completely-different-secret", 10*time.Minute)
	forged, err := other.Generate("ALICE")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if _, err := linker.ConfirmLink(ctx, forged, "U-x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestHashPIN_Weak(t *testing.T) {
	if _, err := HashPIN("12"); !errors.Is(err, ErrWeakPIN) {
		t.Errorf("err = %v, want ErrWeakPIN", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	tokens := NewTokenManager("test-secret", -time.Minute)
	token, err := tokens.Generate("ALICE")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if _, err := tokens.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid member or PIN")
	ErrWeakPIN            = errors.New("PIN must be at least 4 characters")
	ErrPINNotSet          = errors.New("member has no PIN configured")
)

// Linker verifies a member's PIN and binds their chat user ID to the
// member record. Linking is a two-step flow: BeginLink trades the PIN
// for a short-lived token, ConfirmLink trades the token plus the chat
// user ID for the binding.
type Linker struct {
	store  storage.Store
	tokens *TokenManager
}

// NewLinker creates a Linker.
func NewLinker(store storage.Store, tokens *TokenManager) *Linker {
	return &Linker{store: store, tokens: tokens}
}

// HashPIN hashes a PIN for storage on the member record.
func HashPIN(pin string) (string, error) {
	if len(pin) < 4 {
		return "", ErrWeakPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}

// BeginLink verifies the member's PIN and returns a link token. The
// same ErrInvalidCredentials comes back for an unknown member and a
// wrong PIN.
func (l *Linker) BeginLink(ctx context.Context, memberKey, pin string) (string, error) {
	member, err := l.store.GetMember(ctx, models.MemberKey(memberKey))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to load member: %w", err)
	}
	if member.PINHash == "" {
		return "", ErrPINNotSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PINHash), []byte(pin)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := l.tokens.Generate(member.Key)
	if err != nil {
		return "", err
	}
	return token, nil
}

// ConfirmLink validates the link token and binds the chat user ID to
// the member it names. Returns the member key that was linked.
func (l *Linker) ConfirmLink(ctx context.Context, token, lineUserID string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	if lineUserID == "" {
		return "", fmt.Errorf("line user ID is required")
	}

	claims, err := l.tokens.Validate(token)
	if err != nil {
		return "", err
	}

	if err := l.store.LinkMember(ctx, claims.MemberKey, lineUserID); err != nil {
		return "", fmt.Errorf("failed to link member: %w", err)
	}
	return claims.MemberKey, nil
}

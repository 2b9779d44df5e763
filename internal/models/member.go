package models

import "strings"

// Member represents one party in the expense-sharing group.
type Member struct {
	// Key is the unique, upper-cased display key used across expenses,
	// transfers and settlements (e.g. "BOB").
	Key string

	// RealName is the registered legal name used for payment identity
	// matching. Empty until the member sets it.
	RealName string

	// LineUserID is the chat-platform user ID bound to this member.
	// Empty until the member links their account.
	LineUserID string

	// PINHash is the bcrypt hash of the member's linking PIN.
	// Empty if the member never set one.
	PINHash string

	// CreatedAt is the Unix timestamp when the member was registered.
	CreatedAt int64
}

// MemberKey normalizes a display name into a member key.
func MemberKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

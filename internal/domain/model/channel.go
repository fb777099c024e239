package model

// ChannelRequirement is one channel a user must join before the gate opens.
// The set is static configuration, immutable at runtime.
type ChannelRequirement struct {
	ID  string // Telegram channel username, e.g. "@skillhub"
	URL string // public join link shown to the user
}

// MembershipStatus is the raw status string the membership oracle reports
// for a (user, channel) pair.
type MembershipStatus string

const (
	StatusCreator       MembershipStatus = "creator"
	StatusAdministrator MembershipStatus = "administrator"
	StatusMember        MembershipStatus = "member"
	StatusRestricted    MembershipStatus = "restricted"
	StatusLeft          MembershipStatus = "left"
	StatusKicked        MembershipStatus = "kicked"
)

// Satisfies reports whether the status counts as joined. Only an explicit
// member/administrator/creator passes; every other status, including the
// empty status produced by a failed lookup, does not. This is the fail-closed
// rule of the gate: access is never granted when membership cannot be
// confirmed.
func (s MembershipStatus) Satisfies() bool {
	switch s {
	case StatusMember, StatusAdministrator, StatusCreator:
		return true
	default:
		return false
	}
}

// VerificationResult is the outcome of checking one user against every
// required channel. Missing preserves the configured channel order.
type VerificationResult struct {
	AllJoined bool
	Missing   []ChannelRequirement
}

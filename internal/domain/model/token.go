package model

// AccessToken is the daily gate token handed to a verified user.
// The prefix is shared by everyone verified on the same calendar day; the
// suffix is fresh per issuance. Tokens are never stored or revoked here —
// the consuming website re-derives the prefix on its side.
type AccessToken struct {
	Prefix string // 8 uppercase hex chars, deterministic per (secret, day)
	Suffix string // 6 uppercase alphanumeric chars, random per issuance
}

func (t AccessToken) String() string { return t.Prefix + "/" + t.Suffix }

func (t AccessToken) IsZero() bool { return t.Prefix == "" && t.Suffix == "" }

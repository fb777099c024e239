package repository

import "context"

// CourseDraftStep names the state the admin course-entry conversation is in.
type CourseDraftStep string

const (
	StepAwaitTitle    CourseDraftStep = "awaiting_title"
	StepAwaitLink     CourseDraftStep = "awaiting_link"
	StepAwaitCategory CourseDraftStep = "awaiting_category"
)

// CourseDraftState is the explicit finite-state object for one admin's
// in-progress course entry. It holds only the fields collected so far; a
// step's handler rejects input that doesn't match its expected shape instead
// of advancing.
type CourseDraftState struct {
	Step     CourseDraftStep `json:"step"`
	Title    string          `json:"title,omitempty"`
	Link     string          `json:"link,omitempty"`
	Category string          `json:"category,omitempty"`
}

// CourseDraftStateRepository persists draft state keyed by Telegram user ID.
// GetState returns (nil, nil) when no draft is in progress.
type CourseDraftStateRepository interface {
	SetState(ctx context.Context, tgID int64, state *CourseDraftState) error
	GetState(ctx context.Context, tgID int64) (*CourseDraftState, error)
	ClearState(ctx context.Context, tgID int64) error
}

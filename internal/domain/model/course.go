package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"telegram-gate-bot/internal/domain"
)

// Course is one entry in the gated-content catalog that admins maintain
// through the bot and the admin API.
type Course struct {
	ID        string
	Title     string
	Link      string
	Category  string
	AddedBy   int64 // Telegram ID of the admin who added it
	CreatedAt time.Time
}

func NewCourse(id, title, link, category string, addedBy int64) (*Course, error) {
	if id == "" {
		id = ulid.Make().String()
	}
	title = strings.TrimSpace(title)
	link = strings.TrimSpace(link)
	if title == "" || link == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return nil, domain.ErrInvalidArgument
	}
	return &Course{
		ID:        id,
		Title:     title,
		Link:      link,
		Category:  strings.TrimSpace(category),
		AddedBy:   addedBy,
		CreatedAt: time.Now(),
	}, nil
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }

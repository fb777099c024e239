package usecase

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-gate-bot/internal/domain/model"
	"telegram-gate-bot/internal/infra/logging"
	"telegram-gate-bot/internal/infra/metrics"
)

// Compile-time check
var _ TokenIssuer = (*tokenIssuer)(nil)

const (
	prefixLen      = 8
	suffixLen      = 6
	suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// TokenIssuer derives the daily access token handed out after verification.
// The prefix is a keyed digest of the calendar day, so every user verified on
// the same day shares it; the suffix is fresh randomness per call.
type TokenIssuer interface {
	Issue(now time.Time) (model.AccessToken, error)
}

type tokenIssuer struct {
	secret []byte
	rand   io.Reader
	log    *zerolog.Logger
}

func NewTokenIssuer(secret string, logger *zerolog.Logger) *tokenIssuer {
	return &tokenIssuer{
		secret: []byte(secret),
		rand:   rand.Reader,
		log:    logger,
	}
}

// DayFingerprint renders the calendar-day string fed into the keyed hash,
// e.g. "MON-27MAY" for 2024-05-27. Computed in UTC so the token rolls over
// at the same instant regardless of where the process runs.
func DayFingerprint(now time.Time) string {
	now = now.UTC()
	return strings.ToUpper(now.Format("Mon")) + "-" + now.Format("02") + strings.ToUpper(now.Format("Jan"))
}

func (t *tokenIssuer) Issue(now time.Time) (model.AccessToken, error) {
	defer logging.TraceDuration(t.log, "TokenIssuer.Issue")()

	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(DayFingerprint(now)))
	digest := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))

	suffix, err := t.randomSuffix()
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("token suffix: %w", err)
	}

	tok := model.AccessToken{Prefix: digest[:prefixLen], Suffix: suffix}
	metrics.IncTokenIssued()
	return tok, nil
}

// randomSuffix draws suffixLen characters uniformly from suffixAlphabet.
// Rejection sampling keeps the draw unbiased: 36 does not divide 256.
func (t *tokenIssuer) randomSuffix() (string, error) {
	const limit = byte(252) // largest multiple of 36 below 256
	out := make([]byte, 0, suffixLen)
	buf := make([]byte, suffixLen*2)
	for len(out) < suffixLen {
		if _, err := io.ReadFull(t.rand, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, suffixAlphabet[int(b)%len(suffixAlphabet)])
			if len(out) == suffixLen {
				break
			}
		}
	}
	return string(out), nil
}

// Package auth produces validated users for the session manager. The OAuth
// handshake and SMS delivery are external; this package only turns their
// results into User records and checks one-time codes it issued itself.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/ironpulse/internal/models"
)

// ErrInvalidEmail is returned for a Google identity without an email.
var ErrInvalidEmail = errors.New("auth: email is required")

// GoogleIdentity is the result of a completed Google sign-in.
type GoogleIdentity struct {
	Email string `json:"emailId"`
}

// GoogleUser builds the session user for a Google sign-in completed at now.
func GoogleUser(id GoogleIdentity, now time.Time) (models.User, error) {
	email := strings.TrimSpace(id.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, ErrInvalidEmail
	}
	ms := models.EpochMillis(now)
	return models.User{
		ID:        fmt.Sprintf("google-%d", ms),
		EmailID:   email,
		CreatedAt: ms,
	}, nil
}

// PhoneUser builds the session user for a verified phone number.
func PhoneUser(phone string, now time.Time) models.User {
	return models.User{
		ID:          "phone-" + phone,
		EmailID:     fmt.Sprintf("user-%s@gym.com", phone),
		PhoneNumber: phone,
		CreatedAt:   models.EpochMillis(now),
	}
}

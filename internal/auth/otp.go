package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/claude/ironpulse/internal/models"
	"github.com/claude/ironpulse/internal/storage"
)

// OTP errors.
var (
	ErrInvalidPhone    = errors.New("auth: invalid phone number")
	ErrInvalidCode     = errors.New("auth: invalid code")
	ErrNoChallenge     = errors.New("auth: no code was requested for this number")
	ErrExpired         = errors.New("auth: code expired")
	ErrTooManyAttempts = errors.New("auth: too many attempts")
)

const (
	codeLength  = 6
	maxAttempts = 5
	// DefaultOTPTTL is how long an issued code stays valid.
	DefaultOTPTTL = 5 * time.Minute
)

// Sender delivers an issued code to a phone.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of sending an SMS.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(_ context.Context, phone, code string) error {
	s.Log.Info("one-time code issued", "phone", phone, "code", code)
	return nil
}

// OTPService issues and verifies one-time codes. Outstanding challenges are
// persisted under storage.KeyOTP so a restart does not invalidate them.
type OTPService struct {
	store  storage.Store
	sender Sender
	ttl    time.Duration
	log    *slog.Logger

	now      func() time.Time
	generate func() (string, error)
}

// NewOTPService creates an OTPService. A zero ttl uses DefaultOTPTTL.
func NewOTPService(store storage.Store, sender Sender, ttl time.Duration, log *slog.Logger) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPService{
		store:    store,
		sender:   sender,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
		generate: randomCode,
	}
}

// Request issues a fresh code for phone, replacing any outstanding one.
func (s *OTPService) Request(ctx context.Context, phone string) error {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	now := s.now()
	pending, err := s.load(ctx)
	if err != nil {
		return err
	}
	pending = removeChallenge(pruneExpired(pending, now), phone)
	pending = append(pending, models.OTPChallenge{
		PhoneNumber: phone,
		Code:        code,
		ExpiresAt:   models.EpochMillis(now.Add(s.ttl)),
	})
	if err := s.save(ctx, pending); err != nil {
		return err
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return fmt.Errorf("sending code: %w", err)
	}
	return nil
}

// Verify checks code against the challenge issued for phone and returns the
// phone user on success. The challenge is consumed on success and after
// maxAttempts failures. If a failed attempt cannot be recorded the store error
// is returned and the code is not accepted.
func (s *OTPService) Verify(ctx context.Context, phone, code string) (models.User, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return models.User{}, err
	}
	code = strings.TrimSpace(code)
	if len(code) != codeLength {
		return models.User{}, ErrInvalidCode
	}

	now := s.now()
	pending, err := s.load(ctx)
	if err != nil {
		return models.User{}, err
	}
	idx := -1
	for i := range pending {
		if pending[i].PhoneNumber == phone {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.User{}, ErrNoChallenge
	}

	ch := &pending[idx]
	if models.EpochMillis(now) > ch.ExpiresAt {
		if err := s.save(ctx, removeChallenge(pending, phone)); err != nil {
			return models.User{}, err
		}
		return models.User{}, ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		ch.Attempts++
		if ch.Attempts >= maxAttempts {
			if err := s.save(ctx, removeChallenge(pending, phone)); err != nil {
				return models.User{}, err
			}
			return models.User{}, ErrTooManyAttempts
		}
		if err := s.save(ctx, pending); err != nil {
			return models.User{}, err
		}
		return models.User{}, ErrInvalidCode
	}

	if err := s.save(ctx, removeChallenge(pending, phone)); err != nil {
		return models.User{}, err
	}
	return PhoneUser(phone, now), nil
}

// load returns the persisted challenges. Corrupt data is treated as none;
// backend failures are returned.
func (s *OTPService) load(ctx context.Context) ([]models.OTPChallenge, error) {
	var all []models.OTPChallenge
	_, err := storage.LoadJSON(ctx, s.store, storage.KeyOTP, &all)
	if errors.Is(err, storage.ErrCorrupt) {
		s.log.Warn("discarding unreadable otp challenges", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading otp challenges: %w", err)
	}
	return all, nil
}

func pruneExpired(pending []models.OTPChallenge, now time.Time) []models.OTPChallenge {
	cutoff := models.EpochMillis(now)
	live := make([]models.OTPChallenge, 0, len(pending))
	for _, c := range pending {
		if c.ExpiresAt >= cutoff {
			live = append(live, c)
		}
	}
	return live
}

func (s *OTPService) save(ctx context.Context, pending []models.OTPChallenge) error {
	if err := storage.SaveJSON(ctx, s.store, storage.KeyOTP, pending); err != nil {
		return fmt.Errorf("saving otp challenges: %w", err)
	}
	return nil
}

func removeChallenge(pending []models.OTPChallenge, phone string) []models.OTPChallenge {
	out := make([]models.OTPChallenge, 0, len(pending))
	for _, c := range pending {
		if c.PhoneNumber != phone {
			out = append(out, c)
		}
	}
	return out
}

// NormalizePhone strips spaces and dashes and checks for 6 to 15 digits with
// an optional leading '+'.
func NormalizePhone(phone string) (string, error) {
	phone = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 6 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return phone, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

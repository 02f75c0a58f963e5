package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/infrastructure/sns"
	"github.com/go-socfony/internal/pkg/phone"
	"golang.org/x/crypto/bcrypt"
)

const (
	CodeTTL        = 5 * time.Minute
	ResendCooldown = 60 * time.Second
	MaxAttempts    = 5
)

// Store is the persistence the service needs; *dynamo.VerificationRepo satisfies it.
type Store interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	Get(ctx context.Context, phone string) (*domain.VerificationCode, error)
	// ReserveAttempt counts one attempt if fewer than limit were made and
	// returns the new total, or ErrNotFound when the code is gone or spent.
	ReserveAttempt(ctx context.Context, phone string, limit int) (int, error)
	Delete(ctx context.Context, phone string) error
}

type Service interface {
	SendPhoneOTP(ctx context.Context, phone string) error
	// Verify checks code against the active OTP for phone. The record is left
	// in place; call Consume once the guarded mutation has succeeded.
	Verify(ctx context.Context, phone, code string) (*domain.VerificationCode, error)
	Consume(ctx context.Context, phone string)
}

type Option func(*service)

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *service) { s.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	store     Store
	smsSender sns.SMSSender
	cost      int
	now       func() time.Time
}

func NewService(store Store, smsSender sns.SMSSender, opts ...Option) Service {
	s := &service{
		store:     store,
		smsSender: smsSender,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) SendPhoneOTP(ctx context.Context, raw string) error {
	p, err := phone.Normalize(raw)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	existing, err := s.store.Get(ctx, p)
	switch {
	case err == nil:
		if !existing.Expired(now) && now.Sub(existing.CreatedAt) < ResendCooldown {
			return fmt.Errorf("a code was sent less than %s ago: %w", ResendCooldown, domain.ErrTooManyRequests)
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return err
	}
	v := &domain.VerificationCode{
		Phone:     p,
		CodeHash:  string(hash),
		CreatedAt: now,
		ExpiresAt: now.Add(CodeTTL).Unix(),
	}
	if err := s.store.Put(ctx, v); err != nil {
		return err
	}
	if s.smsSender == nil {
		return fmt.Errorf("sms delivery is not configured")
	}
	return s.smsSender.SendSMS(ctx, p, "Your verification code is "+code)
}

func (s *service) Verify(ctx context.Context, raw, code string) (*domain.VerificationCode, error) {
	p, err := phone.Normalize(raw)
	if err != nil {
		return nil, err
	}
	v, err := s.store.Get(ctx, p)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if v.Expired(s.now()) || v.Attempts >= MaxAttempts {
		return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrUnauthorized)
	}
	// The attempt is taken before the hash comparison so parallel guesses
	// share the same budget.
	attempts, err := s.store.ReserveAttempt(ctx, p, MaxAttempts)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)) != nil {
		if attempts >= MaxAttempts {
			s.Consume(ctx, p)
		}
		return nil, fmt.Errorf("invalid verification code: %w", domain.ErrUnauthorized)
	}
	return v, nil
}

func (s *service) Consume(ctx context.Context, p string) {
	if err := s.store.Delete(ctx, p); err != nil {
		slog.Warn("failed to delete verification code", "phone", p, "err", err)
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

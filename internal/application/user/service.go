package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-socfony/internal/application/verification"
	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/pkg/phone"
	"github.com/go-socfony/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldUsername = "username"
	fieldPhone    = "phone"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	// FindUnique resolves exactly one of the selectors in where.
	FindUnique(ctx context.Context, where domain.UserWhereUnique) (*domain.User, error)
	UpdateUsername(ctx context.Context, userID, username string) (*domain.User, error)
	UpdatePhone(ctx context.Context, userID string, req domain.UpdatePhoneRequest) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) (*domain.User, error)
}

type service struct {
	repo         userStore
	verification verification.Service
}

type ServiceDeps struct {
	UserRepo     userStore
	Verification verification.Service
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:         deps.UserRepo,
		verification: deps.Verification,
	}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) FindUnique(ctx context.Context, where domain.UserWhereUnique) (*domain.User, error) {
	var set int
	for _, v := range []string{where.ID, where.Email, where.Phone, where.Username} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of id, email, phone or username is required: %w", domain.ErrBadRequest)
	}

	switch {
	case where.ID != "":
		return s.repo.Get(ctx, where.ID)
	case where.Email != "":
		return s.repo.GetByEmail(ctx, where.Email)
	case where.Username != "":
		return s.repo.GetByUsername(ctx, where.Username)
	default:
		p, err := phone.Normalize(where.Phone)
		if err != nil {
			return nil, err
		}
		return s.repo.GetByPhone(ctx, p)
	}
}

func (s *service) UpdateUsername(ctx context.Context, userID, username string) (*domain.User, error) {
	if !validate.Username(username) {
		return nil, fmt.Errorf("username must be 3-30 letters, digits or underscores: %w", domain.ErrBadRequest)
	}
	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil && existing.UserID != userID:
		return nil, fmt.Errorf("The username has been used by other user: %w", domain.ErrConflict)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldUsername: username})
}

func (s *service) UpdatePhone(ctx context.Context, userID string, req domain.UpdatePhoneRequest) (*domain.User, error) {
	p, err := phone.Normalize(req.Phone)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Phone != nil && *u.Phone == p {
		return nil, fmt.Errorf("The phone number is the same as the old one: %w", domain.ErrBadRequest)
	}

	other, err := s.repo.GetByPhone(ctx, p)
	switch {
	case err == nil && other.UserID != userID:
		return nil, fmt.Errorf("The phone number has been used by other user: %w", domain.ErrConflict)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if u.Phone != nil {
		if req.OldPhoneCode == nil || *req.OldPhoneCode == "" {
			return nil, fmt.Errorf("old_phone_code is required to replace an existing phone: %w", domain.ErrBadRequest)
		}
		if _, err := s.verification.Verify(ctx, *u.Phone, *req.OldPhoneCode); err != nil {
			return nil, err
		}
	}
	if _, err := s.verification.Verify(ctx, p, req.Code); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, userID, map[string]interface{}{fieldPhone: p})
	if err != nil {
		return nil, err
	}
	s.verification.Consume(ctx, p)
	if u.Phone != nil {
		s.verification.Consume(ctx, *u.Phone)
	}
	return updated, nil
}

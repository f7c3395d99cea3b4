// Package service owns user account lifecycle: find-or-create on Google
// sign-in, lookups, and the admin role update.
package service

import (
	"context"
	"errors"
	"log/slog"

	"kosfinder/internal/platform/metrics"
	"kosfinder/internal/user/models"
	"kosfinder/internal/user/store"
	dErrors "kosfinder/pkg/domain-errors"
	"kosfinder/pkg/platform/sentinel"
	"kosfinder/pkg/requestcontext"
)

type Service struct {
	users   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(users store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{users: users, logger: logger, metrics: m}
}

// FindOrCreate resolves a verified Google profile to a local account,
// refreshing name and avatar on every sign-in. New accounts get RoleUser.
func (s *Service) FindOrCreate(ctx context.Context, profile models.GoogleProfile) (*models.User, error) {
	if profile.Sub == "" || profile.Email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "google profile is missing subject or email")
	}

	now := requestcontext.Now(ctx)

	existing, err := s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if profile.Name != "" {
			existing.Name = profile.Name
		}
		if profile.ImageURL != "" {
			existing.ImageURL = profile.ImageURL
		}
		existing.UpdatedAt = now
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh user profile")
		}
		return existing, nil

	case errors.Is(err, sentinel.ErrNotFound):
		user := &models.User{
			ID:        profile.Sub,
			Name:      profile.Name,
			Email:     profile.Email,
			ImageURL:  profile.ImageURL,
			Role:      models.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Concurrent first sign-in for the same account; the other
				// writer won, use its row.
				return s.GetByEmail(ctx, profile.Email)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		if s.metrics != nil {
			s.metrics.IncrementUsersCreated()
		}
		s.logger.InfoContext(ctx, "user created from google sign-in",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", user.ID,
		)
		return user, nil

	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
}

// GetByID retrieves a user by Google subject.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitive.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return user, nil
}

// UpdateRole changes a user's role. Admin-gated at the boundary.
func (s *Service) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be USER or ADMIN")
	}
	user, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update role")
	}
	return user, nil
}

// ListAll returns every account, newest first. Admin-gated at the boundary.
func (s *Service) ListAll(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

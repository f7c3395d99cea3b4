//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kosfinder/internal/user/models"
	"kosfinder/internal/user/store"
	"kosfinder/pkg/platform/sentinel"
	"kosfinder/pkg/testutil/containers"
)

type PostgresUserSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	users *store.Postgres
}

func TestPostgresUserSuite(t *testing.T) {
	suite.Run(t, new(PostgresUserSuite))
}

func (s *PostgresUserSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.users = store.NewPostgres(s.pg.DB)
}

func (s *PostgresUserSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
}

func newUser(id, email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		ID: id, Name: "User " + id, Email: email,
		Role: models.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
}

func (s *PostgresUserSuite) TestCreateAndFind() {
	ctx := context.Background()
	s.Require().NoError(s.users.Create(ctx, newUser("sub-1", "budi@example.com")))

	byID, err := s.users.FindByID(ctx, "sub-1")
	s.Require().NoError(err)
	s.Equal("budi@example.com", byID.Email)

	byEmail, err := s.users.FindByEmail(ctx, "BUDI@example.com")
	s.Require().NoError(err)
	s.Equal("sub-1", byEmail.ID, "email lookup is case-insensitive")

	_, err = s.users.FindByID(ctx, "ghost")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresUserSuite) TestEmailUniqueViolation() {
	ctx := context.Background()
	s.Require().NoError(s.users.Create(ctx, newUser("sub-1", "budi@example.com")))

	err := s.users.Create(ctx, newUser("sub-2", "budi@example.com"))
	s.True(errors.Is(err, sentinel.ErrConflict), "got %v", err)
}

func (s *PostgresUserSuite) TestUpdateRole() {
	ctx := context.Background()
	s.Require().NoError(s.users.Create(ctx, newUser("sub-1", "budi@example.com")))

	updated, err := s.users.UpdateRole(ctx, "sub-1", models.RoleAdmin)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, updated.Role)

	_, err = s.users.UpdateRole(ctx, "ghost", models.RoleAdmin)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresUserSuite) TestListAllNewestFirst() {
	ctx := context.Background()
	older := newUser("sub-1", "budi@example.com")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	s.Require().NoError(s.users.Create(ctx, older))
	s.Require().NoError(s.users.Create(ctx, newUser("sub-2", "sari@example.com")))

	all, err := s.users.ListAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("sub-2", all[0].ID)
}

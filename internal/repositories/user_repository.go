package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
	"github.com/ephraimVPA/Helfzen-zn/internal/tables"
)

// UserHeader is the header row of the allow-list tab.
var UserHeader = []string{"email", "password_hash", "name", "createdAt", "role", "commentAccess"}

const (
	colUserEmail = iota
	colUserPasswordHash
	colUserName
	colUserCreatedAt
	colUserRole
	colUserCommentAccess
)

type UserRepository struct {
	table tables.Table
	sheet string
	log   logrus.FieldLogger
}

func NewUserRepository(table tables.Table, sheet string, log logrus.FieldLogger) *UserRepository {
	return &UserRepository{
		table: table,
		sheet: sheet,
		log:   log.WithField("sheet", sheet),
	}
}

// List returns the allow-list. A missing tab is created with its header and
// yields no users.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.table.Rows(ctx, r.sheet)
	if errors.Is(err, tables.ErrSheetNotFound) {
		if err := r.table.EnsureSheet(ctx, r.sheet, UserHeader); err != nil {
			return nil, fmt.Errorf("ensure users sheet: %w", err)
		}
		return []models.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		u := userFromRow(row)
		if u.Email == "" {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// FindByEmail returns nil, nil when the email is not on the allow-list.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, _, err := r.find(ctx, email)
	return user, err
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	user, index, err := r.find(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", models.NormalizeEmail(email), tables.ErrRowNotFound)
	}
	if err := r.table.UpdateCell(ctx, r.sheet, index, colUserPasswordHash, hash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	r.log.WithField("email", user.Email).Info("password hash updated")
	return nil
}

func (r *UserRepository) find(ctx context.Context, email string) (*models.User, int, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, -1, nil
	}
	rows, err := r.table.Rows(ctx, r.sheet)
	if errors.Is(err, tables.ErrSheetNotFound) {
		if err := r.table.EnsureSheet(ctx, r.sheet, UserHeader); err != nil {
			return nil, -1, fmt.Errorf("ensure users sheet: %w", err)
		}
		return nil, -1, nil
	}
	if err != nil {
		return nil, -1, fmt.Errorf("read users: %w", err)
	}
	for i, row := range rows {
		u := userFromRow(row)
		if u.Email == email {
			return &u, i, nil
		}
	}
	return nil, -1, nil
}

func userFromRow(row []string) models.User {
	u := models.User{
		Email:         tables.Cell(row, colUserEmail),
		PasswordHash:  tables.Cell(row, colUserPasswordHash),
		Name:          tables.Cell(row, colUserName),
		CreatedAt:     tables.Cell(row, colUserCreatedAt),
		Role:          tables.Cell(row, colUserRole),
		CommentAccess: tables.Cell(row, colUserCommentAccess),
	}
	u.Prepare()
	return u
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/parking-gate-control/internal/model"
	"github.com/iliyamo/parking-gate-control/internal/utils"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user with a freshly generated id and returns that id.
func (r *UserRepo) Create(ctx context.Context, email, password string, role model.Role, name string, cost int) (string, error) {
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, role, display_name, created_at) VALUES (?,?,?,?,?,?)",
		id, NormalizeEmail(email), hash, string(role), name, time.Now().UTC())
	if err != nil {
		if isDuplicate(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user, including the password hash, by normalized email.
// It is the only lookup that reads password_hash and is meant for login.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,display_name,created_at FROM users WHERE email=? LIMIT 1",
		NormalizeEmail(email)).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	u.Role = model.Role(role)
	return u, nil
}

// GetByID fetches a user by id without the password hash.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,role,display_name,created_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &role, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	u.Role = model.Role(role)
	return u, nil
}

// UpdateRole sets the role of the user identified by email.
func (r *UserRepo) UpdateRole(ctx context.Context, email string, role model.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE email=?", string(role), NormalizeEmail(email))
	if err != nil {
		return err
	}
	return requireOne(res)
}

// UpdatePassword replaces the password hash of the user identified by email.
func (r *UserRepo) UpdatePassword(ctx context.Context, email, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE email=?", hash, NormalizeEmail(email))
	if err != nil {
		return err
	}
	return requireOne(res)
}

// UpsertAdmin creates an admin account or, when the email already exists,
// resets its password and promotes it to admin.  It reports whether a new
// row was created.
func (r *UserRepo) UpsertAdmin(ctx context.Context, email, password string, cost int) (bool, error) {
	_, err := r.Create(ctx, email, password, model.RoleAdmin, "Administrator", cost)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrEmailExists) {
		return false, err
	}
	if err := r.UpdatePassword(ctx, email, password, cost); err != nil {
		return false, fmt.Errorf("reset password: %w", err)
	}
	if err := r.UpdateRole(ctx, email, model.RoleAdmin); err != nil {
		return false, fmt.Errorf("promote: %w", err)
	}
	return false, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "1062")
}

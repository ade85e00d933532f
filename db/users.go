package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tours/entity"
)

const userColumns = `user_id, name, email, password_hash, role, status, telegram_chat_id, created_at`

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) UserRepo {
	return UserRepo{
		db: db,
	}
}

func (r UserRepo) Add(ctx context.Context, u entity.User) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users
		(user_id, name, email, password_hash, role, status, telegram_chat_id)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7);`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Status, u.TelegramChatID)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s already registered: %w", u.Email, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r UserRepo) ByID(ctx context.Context, id string) (entity.User, error) {
	var u entity.User
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE user_id = $1", id)
	if err != nil {
		return entity.User{}, notFound(err, "user "+id)
	}
	return u, nil
}

func (r UserRepo) ByEmail(ctx context.Context, email string) (entity.User, error) {
	var u entity.User
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE email = LOWER($1)", email)
	if err != nil {
		return entity.User{}, notFound(err, "user")
	}
	return u, nil
}

func (r UserRepo) List(ctx context.Context, f entity.UserFilter, page entity.Page) ([]entity.User, int, error) {
	var c conditions
	c.addIf(f.Role != "", "role = ?", f.Role)
	c.addIf(f.Status != "", "status = ?", f.Status)
	if f.Query != "" {
		q := "%" + f.Query + "%"
		c.add("(name ILIKE ? OR email ILIKE ?)", q, q)
	}

	return paged[entity.User](ctx, r.db, userColumns, "users", c, "created_at DESC", page)
}

func (r UserRepo) UpdateStatus(ctx context.Context, id string, status entity.UserStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET status = $1 WHERE user_id = $2", status, id)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	return checkAffected(res, "user "+id)
}

func (r UserRepo) UpdateRole(ctx context.Context, id string, role entity.Role) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET role = $1 WHERE user_id = $2", role, id)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}
	return checkAffected(res, "user "+id)
}

func (r UserRepo) UpdateProfile(ctx context.Context, id, name string, telegramChatID *int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET name = $1, telegram_chat_id = $2 WHERE user_id = $3",
		name, telegramChatID, id)
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}
	return checkAffected(res, "user "+id)
}

func (r UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE user_id = $1", id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("user %s still has bookings or payments: %w", id, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("executing delete query: %w", err)
	}
	return checkAffected(res, "user "+id)
}

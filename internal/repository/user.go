package repository

import (
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int64) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}

type userRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUserRepository(db *sqlx.DB, logger *zap.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Create(user *models.User) error {
	query := r.db.Rebind(`INSERT INTO users (username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowx(query, user.Username, user.PasswordHash, user.Role, user.CreatedAt).Scan(&user.ID)
}

func (r *userRepository) GetByID(id int64) (*models.User, error) {
	var u models.User
	query := r.db.Rebind(`SELECT id, username, password_hash, role, created_at FROM users WHERE id = ?`)
	if err := r.db.Get(&u, query, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	query := r.db.Rebind(`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`)
	if err := r.db.Get(&u, query, username); err != nil {
		return nil, err
	}
	return &u, nil
}

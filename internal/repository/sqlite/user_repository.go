package sqlite

import (
	"database/sql"
	"fmt"

	"bioterminal/internal/models"
)

// UserRepository implements repository.UserRepository for SQLite.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts or replaces a user in the local cache.
func (r *UserRepository) Upsert(user *models.User) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO usuarios (cedula, nombre, empresa, huella_template)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cedula) DO UPDATE SET
			nombre = excluded.nombre,
			empresa = excluded.empresa,
			huella_template = excluded.huella_template
	`, user.Cedula, user.Nombre, user.Empresa, user.HuellaTemplate)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByCedula retrieves a user by cedula. Returns nil when not found.
func (r *UserRepository) GetByCedula(cedula string) (*models.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var user models.User
	err := r.db.Conn().QueryRow(`
		SELECT cedula, nombre, empresa, huella_template, created_at
		FROM usuarios WHERE cedula = ?
	`, cedula).Scan(&user.Cedula, &user.Nombre, &user.Empresa, &user.HuellaTemplate, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// Count returns the number of cached users.
func (r *UserRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM usuarios`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

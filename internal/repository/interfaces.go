package repository

import "bioterminal/internal/models"

// UserRepository defines local user cache operations.
type UserRepository interface {
	Upsert(user *models.User) error
	GetByCedula(cedula string) (*models.User, error)
	Count() (int, error)
}

// RecordRepository defines offline access record operations.
type RecordRepository interface {
	Save(cedula, tipoRegistro string) (string, error)
	GetUnsynced(limit int) ([]models.OfflineRecord, error)
	MarkSynced(ids []string) error
	CountPending() (int, error)
}

package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bioterminal/internal/models"
)

// RecordRepository implements repository.RecordRepository for SQLite.
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new SQLite offline record repository.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Save stores a new offline access record and returns its generated id.
func (r *RecordRepository) Save(cedula, tipoRegistro string) (string, error) {
	r.db.Lock()
	defer r.db.Unlock()

	recordID := uuid.New().String()
	timestamp := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.Conn().Exec(`
		INSERT INTO registros_offline (id, cedula, timestamp, tipo_registro)
		VALUES (?, ?, ?, ?)
	`, recordID, cedula, timestamp, tipoRegistro)
	if err != nil {
		return "", fmt.Errorf("failed to insert offline record: %w", err)
	}

	return recordID, nil
}

// GetUnsynced returns records not yet pushed to the API, oldest first.
// A limit of 0 means no limit.
func (r *RecordRepository) GetUnsynced(limit int) ([]models.OfflineRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, cedula, timestamp, tipo_registro, verificado, synced, created_at
		FROM registros_offline WHERE synced = 0 ORDER BY created_at ASC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offline records: %w", err)
	}
	defer rows.Close()

	var records []models.OfflineRecord
	for rows.Next() {
		var rec models.OfflineRecord
		if err := rows.Scan(&rec.ID, &rec.Cedula, &rec.Timestamp, &rec.TipoRegistro, &rec.Verificado, &rec.Synced, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan offline record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// MarkSynced flips the synced flag for the given record ids.
func (r *RecordRepository) MarkSynced(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := r.db.Conn().Exec(
		`UPDATE registros_offline SET synced = 1 WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark records synced: %w", err)
	}
	return nil
}

// CountPending returns the number of records waiting to be synced.
func (r *RecordRepository) CountPending() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM registros_offline WHERE synced = 0`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending records: %w", err)
	}
	return count, nil
}

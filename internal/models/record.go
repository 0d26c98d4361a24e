package models

import "time"

// OfflineRecord is a row in the registros_offline table: an access event
// registered while the terminal had no API connectivity, waiting to be synced.
type OfflineRecord struct {
	ID           string    `json:"id"`
	Cedula       string    `json:"cedula"`
	Timestamp    string    `json:"timestamp"`
	TipoRegistro string    `json:"tipo_registro"`
	Verificado   bool      `json:"verificado"`
	Synced       bool      `json:"synced"`
	CreatedAt    time.Time `json:"created_at"`
}

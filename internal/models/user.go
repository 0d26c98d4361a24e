package models

import "time"

// User is a row in the usuarios table, cached locally for offline
// fingerprint verification.
type User struct {
	Cedula         string    `json:"cedula"`
	Nombre         string    `json:"nombre"`
	Empresa        string    `json:"empresa"`
	HuellaTemplate []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

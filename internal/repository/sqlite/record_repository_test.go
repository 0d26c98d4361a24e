package sqlite

import (
	"path/filepath"
	"testing"

	"bioterminal/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordRepository_SaveAndGetUnsynced(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	id1, err := repo.Save("12345678", "entrada")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	id2, err := repo.Save("87654321", "salida")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id1 == id2 {
		t.Error("Expected unique record ids")
	}
	if id1 == "" {
		t.Error("Expected non-empty record id")
	}

	records, err := repo.GetUnsynced(0)
	if err != nil {
		t.Fatalf("GetUnsynced failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 unsynced records, got %d", len(records))
	}

	rec := records[0]
	if rec.Cedula != "12345678" {
		t.Errorf("Expected cedula 12345678, got %s", rec.Cedula)
	}
	if rec.TipoRegistro != "entrada" {
		t.Errorf("Expected tipo entrada, got %s", rec.TipoRegistro)
	}
	if !rec.Verificado {
		t.Error("Expected record to default to verificado")
	}
	if rec.Synced {
		t.Error("Expected new record to be unsynced")
	}
	if rec.Timestamp == "" {
		t.Error("Expected non-empty timestamp")
	}
}

func TestRecordRepository_GetUnsyncedLimit(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	for i := 0; i < 5; i++ {
		if _, err := repo.Save("12345678", "entrada"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	records, err := repo.GetUnsynced(3)
	if err != nil {
		t.Fatalf("GetUnsynced failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records with limit, got %d", len(records))
	}
}

func TestRecordRepository_MarkSynced(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	id1, _ := repo.Save("11111111", "entrada")
	id2, _ := repo.Save("22222222", "entrada")
	id3, _ := repo.Save("33333333", "salida")

	if err := repo.MarkSynced([]string{id1, id3}); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}

	records, err := repo.GetUnsynced(0)
	if err != nil {
		t.Fatalf("GetUnsynced failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 unsynced record, got %d", len(records))
	}
	if records[0].ID != id2 {
		t.Errorf("Expected %s to remain unsynced, got %s", id2, records[0].ID)
	}

	count, err := repo.CountPending()
	if err != nil {
		t.Fatalf("CountPending failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 pending record, got %d", count)
	}
}

func TestRecordRepository_MarkSyncedEmpty(t *testing.T) {
	repo := NewRecordRepository(newTestDB(t))

	if err := repo.MarkSynced(nil); err != nil {
		t.Errorf("MarkSynced with no ids should be a no-op, got %v", err)
	}
}

func TestUserRepository_UpsertAndGet(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	user := &models.User{
		Cedula:  "12345678",
		Nombre:  "Ana Torres",
		Empresa: "ACME",
	}
	if err := repo.Upsert(user); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := repo.GetByCedula("12345678")
	if err != nil {
		t.Fatalf("GetByCedula failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected user, got nil")
	}
	if got.Nombre != "Ana Torres" || got.Empresa != "ACME" {
		t.Errorf("Unexpected user data: %+v", got)
	}

	// Upsert with the same cedula replaces fields.
	user.Empresa = "Globex"
	if err := repo.Upsert(user); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, err = repo.GetByCedula("12345678")
	if err != nil {
		t.Fatalf("GetByCedula failed: %v", err)
	}
	if got.Empresa != "Globex" {
		t.Errorf("Expected updated empresa Globex, got %s", got.Empresa)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user after upsert, got %d", count)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	got, err := repo.GetByCedula("00000000")
	if err != nil {
		t.Fatalf("GetByCedula failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing user, got %+v", got)
	}
}

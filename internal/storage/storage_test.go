package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"tiledash/internal/core"
	"tiledash/internal/log"
	"tiledash/internal/store"
)

func newTestLogger(buf *bytes.Buffer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Handler = nil
	cfg.Output = buf
	return log.New(cfg)
}

func TestSQLiteRepository_LoadSave(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "tiledash.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	defer repo.Close()

	if _, ok, err := repo.Load(ctx, "tiles"); err != nil || ok {
		t.Fatalf("Load(missing) = ok %v, err %v; want absent", ok, err)
	}

	if err := repo.Save(ctx, "tiles", []byte(`[1]`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, "tiles", []byte(`[1,2]`)); err != nil {
		t.Fatalf("Save() upsert error = %v", err)
	}

	got, ok, err := repo.Load(ctx, "tiles")
	if err != nil || !ok || string(got) != `[1,2]` {
		t.Errorf("Load() = %s, %v, %v; want [1,2]", got, ok, err)
	}

	keys, err := repo.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "tiles" {
		t.Errorf("Keys() = %v, %v", keys, err)
	}
}

func TestSQLiteRepository_ReopenRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiledash.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	if err := repo.Save(ctx, "settings", []byte(`{"dueSoonDays":3}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer repo.Close()
	if _, ok, _ := repo.Load(ctx, "settings"); !ok {
		t.Error("value lost after reopen")
	}
}

func TestMemoryStore_NewFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiles.json"), []byte(`[{"id":1,"name":"Seed"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromDir(dir, store.AllKeys)

	raw, ok, _ := s.Load(context.Background(), "tiles")
	if !ok || !bytes.Contains(raw, []byte("Seed")) {
		t.Errorf("Load(tiles) = %s, %v", raw, ok)
	}
	if _, ok, _ := s.Load(context.Background(), "tabs"); ok {
		t.Error("Load(tabs) should be absent")
	}

	// Values are copied on the way in and out.
	raw[0] = 'X'
	again, _, _ := s.Load(context.Background(), "tiles")
	if again[0] != '[' {
		t.Error("MemoryStore leaked its internal buffer")
	}
}

func TestLoadSnapshot_Defaults(t *testing.T) {
	var buf bytes.Buffer
	snap, err := LoadSnapshot(context.Background(), NewMemoryStore(), newTestLogger(&buf))
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(snap.Tiles) != 0 || len(snap.BudgetCategories) != 20 || snap.Settings.DueSoonDays != 5 {
		t.Errorf("LoadSnapshot(empty) = %d tiles, %d categories, %d days",
			len(snap.Tiles), len(snap.BudgetCategories), snap.Settings.DueSoonDays)
	}
}

func TestLoadSnapshot_CorruptCollectionFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	_ = kv.Save(ctx, store.KeyTiles, []byte(`[{"id":1,"name":"Netflix","paymentAmount":"15.49","signupDate":"garbage"}]`))
	_ = kv.Save(ctx, store.KeyBudgetCategories, []byte(`{not json`))
	_ = kv.Save(ctx, store.KeyPaymentMethods, []byte(`[{"id":7,"name":"Visa","methodType":"Credit Card","lastFour":"1234"}]`))

	var buf bytes.Buffer
	snap, err := LoadSnapshot(ctx, kv, newTestLogger(&buf))
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(snap.Tiles) != 1 || snap.Tiles[0].PaymentAmount.Cents != 1549 || !snap.Tiles[0].SignupDate.IsEmpty() {
		t.Errorf("tiles = %+v", snap.Tiles)
	}
	if len(snap.BudgetCategories) != 20 {
		t.Errorf("categories = %d, want default 20", len(snap.BudgetCategories))
	}
	if len(snap.PaymentMethods) != 1 || snap.PaymentMethods[0].ID != 7 {
		t.Errorf("payment methods = %+v", snap.PaymentMethods)
	}
	if !bytes.Contains(buf.Bytes(), []byte("budgetCategories")) {
		t.Errorf("expected a warning naming the corrupt key, got %q", buf.String())
	}
}

func TestLoadSnapshot_LegacyTileKeepsNeighbours(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	_ = kv.Save(ctx, store.KeyTiles, []byte(`[
		{"id":1,"name":"Netflix","paymentAmount":15.49},
		{"id":2,"name":"Legacy","creditCardId":"1700000000000","tabId":"n/a","budgetAmount":"abc"},
		42,
		{"id":"3","name":"Gym","paymentAmount":"30"}
	]`))

	var buf bytes.Buffer
	snap, err := LoadSnapshot(ctx, kv, newTestLogger(&buf))
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(snap.Tiles) != 3 {
		t.Fatalf("tiles = %d, want 3 (only the non-object dropped): %+v", len(snap.Tiles), snap.Tiles)
	}
	if snap.Tiles[0].Name != "Netflix" || snap.Tiles[0].PaymentAmount.Cents != 1549 {
		t.Errorf("good tile = %+v", snap.Tiles[0])
	}
	legacy := snap.Tiles[1]
	if legacy.CreditCardID == nil || *legacy.CreditCardID != 1700000000000 {
		t.Errorf("legacy creditCardId = %v, want 1700000000000", legacy.CreditCardID)
	}
	if legacy.TabID != nil || legacy.BudgetAmount != nil {
		t.Errorf("legacy junk fields should read as absent: %+v", legacy)
	}
	if snap.Tiles[2].ID != 3 || snap.Tiles[2].PaymentAmount.Cents != 3000 {
		t.Errorf("string id tile = %+v", snap.Tiles[2])
	}
	if !bytes.Contains(buf.Bytes(), []byte("Dropping unparsable record")) {
		t.Errorf("expected a warning for the dropped record, got %q", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte("using defaults")) {
		t.Errorf("tiles collection must not be reset, got %q", buf.String())
	}

	// The cleaned collection survives the next write.
	s := store.New(snap)
	s.SetOnChange(Persister(kv, s))
	if _, err := s.AddTile(ctx, core.Tile{Name: "New"}); err != nil {
		t.Fatalf("AddTile() error = %v", err)
	}
	again, err := LoadSnapshot(ctx, kv, newTestLogger(&buf))
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(again.Tiles) != 4 || again.Tiles[1].Name != "Legacy" {
		t.Errorf("reloaded tiles = %+v", again.Tiles)
	}
}

func TestPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	s := store.New(core.EmptySnapshot())
	s.SetOnChange(Persister(kv, s))

	tile, err := s.AddTile(ctx, core.Tile{Name: "Rent", BudgetType: core.Bill})
	if err != nil {
		t.Fatalf("AddTile() error = %v", err)
	}
	if err := s.DeleteCategory(ctx, "housing"); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	var buf bytes.Buffer
	snap, err := LoadSnapshot(ctx, kv, newTestLogger(&buf))
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(snap.Tiles) != 1 || snap.Tiles[0].ID != tile.ID {
		t.Errorf("tiles = %+v", snap.Tiles)
	}
	if len(snap.BudgetCategories) != 19 {
		t.Errorf("categories = %d, want 19", len(snap.BudgetCategories))
	}
}

func TestSaveKey_Unknown(t *testing.T) {
	if err := SaveKey(context.Background(), NewMemoryStore(), core.EmptySnapshot(), "widgets"); err == nil {
		t.Error("SaveKey() with unknown key should fail")
	}
}

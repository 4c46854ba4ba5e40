package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRun_appliesEmbeddedSchemaOnce(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	applied, err := Run(ctx, db)
	if err != nil {
		t.Fatalf("Run() err = %v", err)
	}
	if len(applied) != 1 || applied[0] != "0001" {
		t.Fatalf("Run() applied = %v; want [0001]", applied)
	}

	for _, table := range []string{"daily_rentals", "hourly_rentals"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	again, err := Run(ctx, db)
	if err != nil {
		t.Fatalf("second Run() err = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second Run() applied = %v; want none", again)
	}
}

func TestRun_ordersByVersionAndSkipsOtherFiles(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"m/0002_second.sql": {Data: []byte(`INSERT INTO t (id) VALUES (2);`)},
		"m/0001_first.sql":  {Data: []byte(`CREATE TABLE t (id INTEGER);`)},
		"m/README.md":       {Data: []byte(`not a migration`)},
	}

	applied, err := runFS(context.Background(), db, fsys, "m")
	if err != nil {
		t.Fatalf("runFS() err = %v", err)
	}
	if len(applied) != 2 || applied[0] != "0001" || applied[1] != "0002" {
		t.Fatalf("applied = %v; want [0001 0002]", applied)
	}
}

func TestRun_failedMigrationIsNotRecorded(t *testing.T) {
	db := openMemory(t)
	fsys := fstest.MapFS{
		"m/0001_broken.sql": {Data: []byte(`CREATE TABLE (;`)},
	}

	if _, err := runFS(context.Background(), db, fsys, "m"); err == nil {
		t.Fatal("runFS() err = nil; want error")
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("schema_migrations rows = %d; want 0", n)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in          string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{in: "0001_rentals.sql", wantVersion: "0001", wantName: "rentals", wantOK: true},
		{in: "1_short.sql", wantOK: false},
		{in: "0003_x.txt", wantOK: false},
	}
	for _, tt := range tests {
		v, n, ok := parseMigrationFilename(tt.in)
		if ok != tt.wantOK || v != tt.wantVersion || n != tt.wantName {
			t.Errorf("parseMigrationFilename(%q) = %q, %q, %v", tt.in, v, n, ok)
		}
	}
}

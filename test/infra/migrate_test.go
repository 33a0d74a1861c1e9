package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// The goose CLI refuses annotation-less .sql files, so every shipped migration
// must open with the Up directive before its first statement.
func TestMigrationsCarryGooseAnnotations(t *testing.T) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	checked := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(migrationsDir, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		sql := string(data)

		upAt := strings.Index(sql, "-- +goose Up")
		if upAt < 0 {
			t.Errorf("%s: missing -- +goose Up annotation", e.Name())
			continue
		}
		for _, line := range strings.Split(sql[:upAt], "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				t.Errorf("%s: statement %q precedes the Up annotation", e.Name(), trimmed)
			}
		}
		checked++
	}
	if checked == 0 {
		t.Fatal("no .sql migrations found")
	}
}

func TestUpSection(t *testing.T) {
	sql := "-- +goose Up\nCREATE TABLE t (id int);\n\n-- +goose Down\nDROP TABLE t;\n"
	got := upSection(sql)
	if strings.Contains(got, "DROP TABLE") {
		t.Fatalf("rollback statements survived the cut: %q", got)
	}
	if !strings.Contains(got, "CREATE TABLE t") {
		t.Fatalf("up statements missing: %q", got)
	}

	plain := "CREATE TABLE u (id int);"
	if upSection(plain) != plain {
		t.Fatalf("unannotated sql must pass through unchanged")
	}
}

package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// migratedDB opens a fresh database under t.TempDir with the schema applied.
func migratedDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "stories.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "file in existing directory",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "stories.db") },
		},
		{
			name:    "missing directory",
			path:    func(*testing.T) string { return "/nonexistent/storyline/stories.db" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path(t))
			if tt.wantErr {
				if err == nil {
					_ = db.Close()
					t.Error("New() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			defer func() {
				_ = db.Close()
			}()

			if got := db.Stats().MaxOpenConnections; got != 25 {
				t.Errorf("New() MaxOpenConnections = %v, want 25", got)
			}
		})
	}
}

func TestNew_PragmasOnEveryConnection(t *testing.T) {
	db := migratedDB(t)
	ctx := context.Background()

	// Hold several connections at once so the pool has to open new ones.
	var conns []*sql.Conn
	for i := 0; i < 3; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn() error = %v", err)
		}
		conns = append(conns, conn)
	}
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for i, conn := range conns {
		var fk, busy int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("conn %d: PRAGMA foreign_keys: %v", i, err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy); err != nil {
			t.Fatalf("conn %d: PRAGMA busy_timeout: %v", i, err)
		}
		if fk != 1 {
			t.Errorf("conn %d: foreign_keys = %d, want 1", i, fk)
		}
		if busy != 5000 {
			t.Errorf("conn %d: busy_timeout = %d, want 5000", i, busy)
		}
	}
}

func TestMigrate_Schema(t *testing.T) {
	db := migratedDB(t)

	tests := []struct {
		table   string
		columns []string
	}{
		{
			table:   "stories",
			columns: []string{"id", "title", "genre", "description", "scenes", "submitted_at", "created_at", "updated_at"},
		},
		{
			table:   "characters",
			columns: []string{"id", "story_id", "name", "role", "description", "actor_name", "popularity", "image_refs", "updated_at"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			rows, err := db.Query("SELECT name FROM pragma_table_info(?)", tt.table)
			if err != nil {
				t.Fatalf("table_info(%s): %v", tt.table, err)
			}
			defer func() {
				_ = rows.Close()
			}()

			got := make(map[string]bool)
			for rows.Next() {
				var name string
				if err := rows.Scan(&name); err != nil {
					t.Fatalf("scan column: %v", err)
				}
				got[name] = true
			}
			if err := rows.Err(); err != nil {
				t.Fatalf("rows: %v", err)
			}
			if len(got) != len(tt.columns) {
				t.Errorf("table %s has %d columns, want %d", tt.table, len(got), len(tt.columns))
			}
			for _, col := range tt.columns {
				if !got[col] {
					t.Errorf("table %s missing column %s", tt.table, col)
				}
			}
		})
	}

	var idx int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_characters_story'").Scan(&idx); err != nil {
		t.Fatalf("check index: %v", err)
	}
	if idx != 1 {
		t.Error("Migrate() should create idx_characters_story")
	}
}

func TestMigrate_StoryDefaults(t *testing.T) {
	db := migratedDB(t)

	if _, err := db.Exec("INSERT INTO stories (id, title) VALUES ('s1', 'Harbour Tales')"); err != nil {
		t.Fatalf("insert story: %v", err)
	}
	var genre, scenes string
	var submitted sql.NullTime
	err := db.QueryRow("SELECT genre, scenes, submitted_at FROM stories WHERE id = 's1'").Scan(&genre, &scenes, &submitted)
	if err != nil {
		t.Fatalf("select story: %v", err)
	}
	if genre != "" || scenes != "[]" || submitted.Valid {
		t.Errorf("story defaults = genre %q, scenes %q, submitted %v; want empty genre, [] and not submitted", genre, scenes, submitted)
	}
}

func TestMigrate_IdempotentKeepsRows(t *testing.T) {
	db := migratedDB(t)

	if _, err := db.Exec("INSERT INTO stories (id, title, scenes) VALUES ('s1', 'Harbour Tales', '[{\"id\":\"a\"}]')"); err != nil {
		t.Fatalf("insert story: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	var scenes string
	if err := db.QueryRow("SELECT scenes FROM stories WHERE id = 's1'").Scan(&scenes); err != nil {
		t.Fatalf("select story after second migration: %v", err)
	}
	if scenes != `[{"id":"a"}]` {
		t.Errorf("scenes after second migration = %q", scenes)
	}
}

func TestMigrate_CharactersCascade(t *testing.T) {
	db := migratedDB(t)

	if _, err := db.Exec("INSERT INTO stories (id, title) VALUES ('s1', 'Story')"); err != nil {
		t.Fatalf("insert story: %v", err)
	}
	if _, err := db.Exec("INSERT INTO characters (id, story_id, name) VALUES ('c1', 's1', 'Ann')"); err != nil {
		t.Fatalf("insert character: %v", err)
	}
	if _, err := db.Exec("INSERT INTO characters (id, story_id, name) VALUES ('c2', 'missing', 'Bob')"); err == nil {
		t.Error("insert character for a missing story should violate the foreign key")
	}

	if _, err := db.Exec("DELETE FROM stories WHERE id = 's1'"); err != nil {
		t.Fatalf("delete story: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM characters").Scan(&count); err != nil {
		t.Fatalf("count characters: %v", err)
	}
	if count != 0 {
		t.Errorf("characters after story delete = %d, want 0", count)
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupDatabase(t *testing.T) {
	t.Run("Creates Config And Database", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "setup.db")
		t.Setenv("DB_PATH", dbPath)

		var buf bytes.Buffer
		runner := newTestRunner(t, RunnerOpts{}, &buf)

		if err := runApp(runner, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Errorf("expected config file to be created: %v", err)
		}
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("expected database file to be created: %v", err)
		}
	})

	t.Run("Rollback After Setup", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "setup.db")
		t.Setenv("DB_PATH", dbPath)

		var buf bytes.Buffer
		runner := newTestRunner(t, RunnerOpts{}, &buf)
		configPath := filepath.Join(dir, "config.toml")

		if err := runApp(runner, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := runApp(runner, "setup", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
	})
}

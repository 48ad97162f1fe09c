package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"gitea.jw6.us/james/tiptrack/internal/importer"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger = zap.NewNop()
	sqlitePath, ownerEmail, dryRun = "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSeedLocalCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tip_data.db")

	out, err := execute(t, "seed-local", "--sqlite", path)
	if err != nil {
		t.Fatalf("seed-local failed: %v", err)
	}
	if !strings.Contains(out, "5 sample shifts") {
		t.Errorf("unexpected output: %q", out)
	}

	db, err := importer.OpenLegacy(path)
	if err != nil {
		t.Fatalf("OpenLegacy: %v", err)
	}
	defer db.Close()
	rows, err := importer.ReadLegacy(context.Background(), db)
	if err != nil {
		t.Fatalf("ReadLegacy: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d legacy rows, want 5", len(rows))
	}
}

func TestRunCmdRequiresFlags(t *testing.T) {
	if _, err := execute(t, "run", "--sqlite", "tips.db"); err == nil {
		t.Fatal("run without --owner should fail")
	}
}

func TestRunCmdMissingLegacyDatabase(t *testing.T) {
	_, err := execute(t, "run", "--sqlite", filepath.Join(t.TempDir(), "missing.db"), "--owner", "owner@example.com")
	if err == nil || !strings.Contains(err.Error(), "legacy database") {
		t.Fatalf("expected legacy database error, got %v", err)
	}
}

func TestPrintReport(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)

	printReport(rootCmd, importer.Report{
		Read:     3,
		Migrated: 2,
		DryRun:   true,
		Skipped:  []importer.Skipped{{ShiftID: 9, Reason: "tips_earned: is required"}},
	})

	want := "Found 3 legacy shifts. Would migrate 2, skipped 1.\n  shift 9: tips_earned: is required\n"
	if out.String() != want {
		t.Errorf("printReport() = %q, want %q", out.String(), want)
	}
}

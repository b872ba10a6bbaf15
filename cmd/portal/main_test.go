package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePort(t *testing.T) {
	for _, port := range []int{1, 8318, 65535} {
		if err := validatePort(port); err != nil {
			t.Fatalf("expected port %d to be valid, got %v", port, err)
		}
	}
	for _, port := range []int{0, -1, 65536} {
		if err := validatePort(port); err == nil {
			t.Fatalf("expected port %d to be invalid", port)
		}
	}
}

func TestRunRejectsConflictingGrants(t *testing.T) {
	err := run(context.Background(), []string{"-grant-owner", "a@example.com", "-grant-admin", "b@example.com"})
	if err == nil || !strings.Contains(err.Error(), "only one") {
		t.Fatalf("expected conflicting grant error, got %v", err)
	}
}

func TestRunInitThenGrantUnknownEmail(t *testing.T) {
	t.Setenv("DB_CONNECTION", "")
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	if err := run(context.Background(), []string{"-config", configPath, "-init", "-db-path", filepath.Join(dir, "portal.db")}); err != nil {
		t.Fatalf("init: %v", err)
	}
	err := run(context.Background(), []string{"-config", configPath, "-grant-owner", "nobody@example.com"})
	if err == nil || !strings.Contains(err.Error(), "no profile") {
		t.Fatalf("expected unknown email error, got %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	t.Setenv("DB_CONNECTION", "")
	err := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("expected missing config error, got %v", err)
	}
}

package db

import "testing"

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open("", Pool{}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestMigrateRequiresConnection(t *testing.T) {
	if err := Migrate(nil); err == nil {
		t.Fatalf("expected error for nil connection")
	}
}

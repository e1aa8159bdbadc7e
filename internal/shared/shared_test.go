package shared

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if first == "" || second == "" {
		t.Fatal("expected non-empty ids")
	}
	if first == second {
		t.Error("expected distinct ids")
	}
	if len(strings.Split(first, "-")) != 5 {
		t.Errorf("expected uuid shape, got %s", first)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"total": 2}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(compact) != `{"total":2}` {
		t.Errorf("unexpected compact output %s", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("expected indented output, got %s", pretty)
	}
}

func TestDatabase(t *testing.T) {
	t.Run("opens an in-memory database", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			t.Errorf("database not reachable: %v", err)
		}
	})

	t.Run("ConfigureDatabase clamps to one connection", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		ConfigureDatabase(db, 0, 0)
		if got := db.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("expected 1 max open connection, got %d", got)
		}
	})
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(nil)
	if logger == nil {
		t.Fatal("expected a logger")
	}

	child := WithLogger(logger, "component", "test")
	if child == nil {
		t.Fatal("expected a child logger")
	}
}

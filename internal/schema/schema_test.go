package schema

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/planscope/sheetdex/internal/defra"
)

func TestAll(t *testing.T) {
	schemas, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("expected 2 schemas, got %d", len(schemas))
	}
	if schemas[0].Name != "Job" {
		t.Errorf("Job must be registered before SheetIndex, got %s first", schemas[0].Name)
	}
	for _, s := range schemas {
		if !strings.Contains(s.SDL, "type "+s.Name) {
			t.Errorf("%s SDL doesn't contain 'type %s'", s.Name, s.Name)
		}
	}
}

func TestSheetIndexSchemaFields(t *testing.T) {
	s, err := Get("SheetIndex")
	if err != nil {
		t.Fatalf("Get(SheetIndex) error = %v", err)
	}
	for _, field := range []string{
		"job_id", "source_index", "sheet_number", "sheet_title",
		"discipline", "sheet_kind", "confidence", "needs_review",
		"manual_required", "extraction_source", "extraction_notes",
		"render_path", "crop_path",
	} {
		if !strings.Contains(s.SDL, field) {
			t.Errorf("SheetIndex SDL missing field %s", field)
		}
	}
}

func TestGet(t *testing.T) {
	t.Run("existing schema", func(t *testing.T) {
		s, err := Get("Job")
		if err != nil {
			t.Fatalf("Get(Job) error = %v", err)
		}
		if s.Name != "Job" || s.SDL == "" {
			t.Errorf("unexpected schema: %+v", s)
		}
	})

	t.Run("non-existent schema", func(t *testing.T) {
		if _, err := Get("NonExistent"); err == nil {
			t.Error("expected error for non-existent schema")
		}
	})
}

func TestInitialize(t *testing.T) {
	t.Run("successful initialization", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v0/schema" {
				w.WriteHeader(http.StatusOK)
				return
			}
			t.Errorf("unexpected path: %s", r.URL.Path)
		}))
		defer server.Close()

		client := defra.NewClient(server.URL)
		if err := Initialize(context.Background(), client, slog.Default()); err != nil {
			t.Errorf("Initialize() error = %v", err)
		}
	})

	t.Run("handles already exists error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v0/schema" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("collection already exists. Name: SheetIndex"))
				return
			}
		}))
		defer server.Close()

		client := defra.NewClient(server.URL)
		if err := Initialize(context.Background(), client, slog.Default()); err != nil {
			t.Errorf("Initialize() should handle already exists, got error = %v", err)
		}
	})

	t.Run("fails on other errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v0/schema" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("invalid schema syntax"))
				return
			}
		}))
		defer server.Close()

		client := defra.NewClient(server.URL)
		if err := Initialize(context.Background(), client, slog.Default()); err == nil {
			t.Error("Initialize() should fail on syntax error")
		}
	})
}

func TestIsAlreadyExistsError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"already exists", errWithMsg("collection already exists. Name: Job"), true},
		{"already exists variant", errWithMsg("schema already exists"), true},
		{"other error", errWithMsg("invalid syntax"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAlreadyExistsError(tt.err); got != tt.want {
				t.Errorf("isAlreadyExistsError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// errWithMsg creates a simple error with a message
type errWithMsg string

func (e errWithMsg) Error() string { return string(e) }

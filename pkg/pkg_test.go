package pkg

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "folio" {
		t.Errorf("Expected Name to be %q, got %q", "folio", Name)
	}
}

func TestVersion(t *testing.T) {
	v := Version()
	if v == "" {
		t.Fatal("Version should not be empty")
	}

	if strings.ContainsAny(v, " \n\t") {
		t.Errorf("Version should be trimmed, got %q", v)
	}

	if parts := strings.Split(v, "."); len(parts) != 3 {
		t.Errorf("Version %q is not MAJOR.MINOR.PATCH", v)
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("config.json")
	if filepath.Dir(got) != ConfigDir() {
		t.Errorf("ConfigPath parent = %q, want %q", filepath.Dir(got), ConfigDir())
	}

	if ConfigPath() != ConfigDir() {
		t.Errorf("ConfigPath() = %q, want %q", ConfigPath(), ConfigDir())
	}
}

func TestErrorSentinel(t *testing.T) {
	errBase := NewError("base failure")
	cause := errors.New("disk on fire")

	derived := errBase.Wrap(cause).With(slog.String("path", "/tmp/x"))

	if !errors.Is(derived, errBase) {
		t.Error("derived error should match its sentinel")
	}

	if !errors.Is(derived, cause) {
		t.Error("derived error should match its cause")
	}

	if errors.Is(derived, NewError("base failure")) {
		t.Error("derived error should not match an unrelated sentinel")
	}

	if got, want := derived.Error(), "base failure: disk on fire"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	more := derived.With(slog.Int("line", 2))
	if n := len(derived.LogValue().Group()); n != 3 {
		t.Errorf("With changed its receiver: %d attrs", n)
	}

	if !errors.Is(more, errBase) || len(more.LogValue().Group()) != 4 {
		t.Errorf("With lost the sentinel or attributes: %v", more.LogValue())
	}
}

func TestErrorLogValue(t *testing.T) {
	err := NewError("msg").Wrap(errors.New("cause")).With(slog.Int("n", 3))

	v := err.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind = %v, want group", v.Kind())
	}

	keys := make([]string, 0, 3)
	for _, a := range v.Group() {
		keys = append(keys, a.Key)
	}

	if got := strings.Join(keys, ","); got != "error,cause,n" {
		t.Errorf("LogValue keys = %s", got)
	}
}

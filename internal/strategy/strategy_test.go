package strategy

import (
	"context"
	"errors"
	"testing"

	"finthrust/internal/domain"
)

// stubStrategy is a minimal Strategy implementation used in registry tests.
type stubStrategy struct {
	name string
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) GenerateSignals(_ context.Context, _ domain.Series) (domain.SignalSeries, error) {
	return nil, nil
}

func stubFactory(name string) Factory {
	return func(_ Params) (Strategy, error) {
		return &stubStrategy{name: name}, nil
	}
}

func TestRegistryRegisterAndNew(t *testing.T) {
	r := NewRegistry()
	r.Register("test-strategy", stubFactory("test-strategy"))

	s, err := r.New("test-strategy", nil)
	if err != nil {
		t.Fatalf("New returned error for registered strategy: %v", err)
	}
	if s.Name() != "test-strategy" {
		t.Errorf("New returned strategy with Name() = %q, want %q", s.Name(), "test-strategy")
	}
	if !r.Has("test-strategy") {
		t.Error("Has returned false for registered strategy")
	}
}

func TestRegistryNew_Unknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.New("nonexistent", nil)
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("New for unregistered name = %v, want ErrUnknownStrategy", err)
	}
	if r.Has("nonexistent") {
		t.Error("Has returned true for unregistered strategy")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register("beta", stubFactory("beta"))
	r.Register("alpha", stubFactory("alpha"))

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2", len(names))
	}
	// List returns sorted names.
	if names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List returned %v, want [alpha beta]", names)
	}
}

func TestParamsInt(t *testing.T) {
	p := Params{"short_window": 10}
	if got := p.Int("short_window", 20); got != 10 {
		t.Errorf("Int(short_window) = %d, want 10", got)
	}
	if got := p.Int("long_window", 50); got != 50 {
		t.Errorf("Int(long_window) fallback = %d, want 50", got)
	}
}

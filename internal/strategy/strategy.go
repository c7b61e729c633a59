// Package strategy defines the Strategy interface for trading strategies and
// provides a Registry for managing multiple strategy implementations.
package strategy

import (
	"context"
	"errors"
	"sort"

	"finthrust/internal/domain"
)

// ErrInsufficientData is returned by a strategy when the input series is
// shorter than the lookback it requires. It is recoverable: the strategy
// returns an empty signal set alongside it so callers may treat the run as
// neutral instead of failing.
var ErrInsufficientData = errors.New("insufficient data for strategy lookback")

// ErrUnknownStrategy is returned when building a strategy name that was
// never registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy is the interface that all trading strategies must implement.
// Implementations are pure functions of their construction-time parameters
// and the input series: no side effects, no state retained between calls.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// GenerateSignals computes signal events for the given series. The
	// series must be non-empty and sorted ascending by timestamp. Every
	// returned signal timestamp belongs to the series' timestamp domain.
	GenerateSignals(ctx context.Context, series domain.Series) (domain.SignalSeries, error)
}

// Params is a flat mapping of parameter name to numeric value. Validation
// is the concern of the individual strategy; there is no cross-component
// schema.
type Params map[string]float64

// Int reads an integer parameter, falling back to def when absent.
func (p Params) Int(name string, def int) int {
	if v, ok := p[name]; ok {
		return int(v)
	}
	return def
}

// Factory constructs a strategy from a parameter set.
type Factory func(params Params) (Strategy, error)

// Registry holds a named collection of strategy factories for lookup and
// enumeration. Strategies are registered explicitly at startup; there is
// no runtime discovery.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a strategy factory to the registry under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// New builds the named strategy with the given parameters. An unregistered
// name yields ErrUnknownStrategy.
func (r *Registry) New(name string, params Params) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, ErrUnknownStrategy
	}
	return f(params)
}

// Has reports whether a strategy with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

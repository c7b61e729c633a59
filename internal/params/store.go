// Package params provides an in-memory store for per-strategy parameter
// overrides (moving-average windows, unit sizes, etc.) with JSON
// persistence.
package params

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
)

// Store holds strategy parameters in memory with JSON persistence. Values
// set here override a strategy's built-in defaults when a backtest names no
// explicit parameters.
type Store struct {
	mu       sync.RWMutex
	params   map[string]map[string]float64 // strategy -> key -> value
	filePath string
	log      *slog.Logger
}

// NewStore creates a Store, loading persisted state from filePath.
func NewStore(filePath string, log *slog.Logger) *Store {
	s := &Store{
		params:   make(map[string]map[string]float64),
		filePath: filePath,
		log:      log,
	}
	s.load()
	return s
}

// Snapshot returns a deep copy of all parameters.
func (s *Store) Snapshot() map[string]map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]float64, len(s.params))
	for strat, m := range s.params {
		inner := make(map[string]float64, len(m))
		for k, v := range m {
			inner[k] = v
		}
		out[strat] = inner
	}
	return out
}

// Get returns parameters for a single strategy (nil-safe).
func (s *Store) Get(strategy string) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.params[strategy]
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Set stores a value and persists to disk.
func (s *Store) Set(strategy, key string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.params[strategy] == nil {
		s.params[strategy] = make(map[string]float64)
	}
	s.params[strategy][key] = value
	s.flush()
}

// Replace overwrites a strategy's whole parameter set and persists to disk.
func (s *Store) Replace(strategy string, values map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]float64, len(values))
	for k, v := range values {
		m[k] = v
	}
	s.params[strategy] = m
	s.flush()
}

// Delete removes a value and persists to disk.
func (s *Store) Delete(strategy, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.params[strategy]; ok {
		delete(m, key)
		if len(m) == 0 {
			delete(s.params, strategy)
		}
	}
	s.flush()
}

// load reads the JSON file into memory.
func (s *Store) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return // File doesn't exist yet — start empty.
	}
	var loaded map[string]map[string]float64
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.log.Warn("loading params file", "error", err)
		return
	}
	s.params = loaded
	s.log.Info("loaded strategy params", "strategies", len(loaded))
}

// flush writes the in-memory state to disk. Must be called with mu held.
func (s *Store) flush() {
	data, err := json.Marshal(s.params)
	if err != nil {
		s.log.Error("marshalling params", "error", err)
		return
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		s.log.Error("writing params file", "error", err)
	}
}

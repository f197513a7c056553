package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every backend of a [FallbackGroup] failed or
// was skipped because its breaker is open.
var ErrAllFailed = errors.New("resilience: all backends failed")

// FallbackConfig is the breaker configuration applied to each backend of a
// [FallbackGroup]. The breaker name is replaced with the backend name.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

type backend[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// BackendStatus reports the breaker state of one backend.
type BackendStatus struct {
	Name  string
	State State
}

// FallbackGroup holds a primary backend and ordered fallbacks of the same
// type, each behind its own [CircuitBreaker].
type FallbackGroup[T any] struct {
	backends []backend[T]
	cfg      FallbackConfig
}

// NewFallbackGroup returns a group whose first backend is primary.
func NewFallbackGroup[T any](primary T, name string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(name, primary)
	return fg
}

// AddFallback appends a backend tried after all earlier ones. It must not be
// called concurrently with Execute.
func (fg *FallbackGroup[T]) AddFallback(name string, value T) {
	cb := fg.cfg.CircuitBreaker
	cb.Name = name
	fg.backends = append(fg.backends, backend[T]{name: name, value: value, breaker: NewCircuitBreaker(cb)})
}

// Status returns the breaker state of every backend in order.
func (fg *FallbackGroup[T]) Status() []BackendStatus {
	out := make([]BackendStatus, len(fg.backends))
	for i, b := range fg.backends {
		out[i] = BackendStatus{Name: b.name, State: b.breaker.State()}
	}
	return out
}

// Len returns the number of backends.
func (fg *FallbackGroup[T]) Len() int { return len(fg.backends) }

// Execute calls fn with each backend in order until one succeeds. If none
// does, the returned error wraps [ErrAllFailed] and the last failure.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult is [FallbackGroup.Execute] for calls that produce a value.
// It is a function because methods cannot take type parameters.
func ExecuteWithResult[T, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range fg.backends {
		b := &fg.backends[i]
		var out R
		err := b.breaker.Execute(func() error {
			var err error
			out, err = fn(b.value)
			return err
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("backend skipped, circuit open", "backend", b.name)
			continue
		}
		slog.Warn("backend failed, trying next", "backend", b.name, "err", err)
	}
	var zero R
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}

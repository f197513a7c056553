package resilience

import (
	"errors"
	"testing"
	"time"
)

func newGroup() *FallbackGroup[string] {
	fg := NewFallbackGroup("sqlite", "sqlite", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour},
	})
	fg.AddFallback("postgres", "postgres")
	return fg
}

func TestFallbackGroup_Execute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		failing map[string]bool
		want    string
		wantErr bool
	}{
		{name: "primary healthy", want: "sqlite"},
		{name: "primary down", failing: map[string]bool{"sqlite": true}, want: "postgres"},
		{name: "all down", failing: map[string]bool{"sqlite": true, "postgres": true}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var used string
			err := newGroup().Execute(func(v string) error {
				if tc.failing[v] {
					return errBackend
				}
				used = v
				return nil
			})
			if tc.wantErr {
				if !errors.Is(err, ErrAllFailed) || !errors.Is(err, errBackend) {
					t.Fatalf("err = %v, want ErrAllFailed wrapping the backend error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if used != tc.want {
				t.Errorf("used %q, want %q", used, tc.want)
			}
		})
	}
}

func TestFallbackGroup_SkipsOpenBackend(t *testing.T) {
	t.Parallel()

	fg := newGroup()
	calls := map[string]int{}
	for range 4 {
		_ = fg.Execute(func(v string) error {
			calls[v]++
			if v == "sqlite" {
				return errBackend
			}
			return nil
		})
	}
	if calls["sqlite"] != 2 {
		t.Errorf("sqlite called %d times, want 2 before its breaker opened", calls["sqlite"])
	}
	if calls["postgres"] != 4 {
		t.Errorf("postgres called %d times, want 4", calls["postgres"])
	}

	status := fg.Status()
	if len(status) != 2 || status[0].State != StateOpen || status[1].State != StateClosed {
		t.Errorf("Status = %+v", status)
	}
	if fg.Len() != 2 {
		t.Errorf("Len = %d, want 2", fg.Len())
	}
}

func TestExecuteWithResult(t *testing.T) {
	t.Parallel()

	fg := NewFallbackGroup(1, "one", FallbackConfig{})
	fg.AddFallback("two", 2)

	got, err := ExecuteWithResult(fg, func(v int) (int, error) {
		if v == 1 {
			return 0, errBackend
		}
		return v * 10, nil
	})
	if err != nil || got != 20 {
		t.Fatalf("ExecuteWithResult = %d, %v; want 20, nil", got, err)
	}

	_, err = ExecuteWithResult(fg, func(int) (int, error) { return 0, errBackend })
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

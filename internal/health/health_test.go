package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/health"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/resilience"
)

type body struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func readyz(t *testing.T, ctx context.Context, checkers ...health.Checker) (int, body) {
	t.Helper()
	req := httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	health.New(checkers...).Readyz(rec, req)

	var b body
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, b
}

func pass(name string) health.Checker {
	return health.Checker{Name: name, Check: func(context.Context) error { return nil }}
}

func fail(name, msg string) health.Checker {
	return health.Checker{Name: name, Check: func(context.Context) error { return errors.New(msg) }}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.New(fail("store", "down")).Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 regardless of checkers", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		checkers []health.Checker
		wantCode int
		want     body
	}{
		{
			name:     "no checkers",
			wantCode: http.StatusOK,
			want:     body{Status: "ok"},
		},
		{
			name:     "all pass",
			checkers: []health.Checker{pass("store"), pass("ambient")},
			wantCode: http.StatusOK,
			want:     body{Status: "ok", Checks: map[string]string{"store": "ok", "ambient": "ok"}},
		},
		{
			name:     "one fails",
			checkers: []health.Checker{fail("store", "connection refused"), pass("ambient")},
			wantCode: http.StatusServiceUnavailable,
			want:     body{Status: "fail", Checks: map[string]string{"store": "fail: connection refused", "ambient": "ok"}},
		},
		{
			name:     "all fail",
			checkers: []health.Checker{fail("store", "timeout"), fail("ambient", "stalled")},
			wantCode: http.StatusServiceUnavailable,
			want:     body{Status: "fail", Checks: map[string]string{"store": "fail: timeout", "ambient": "fail: stalled"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			code, got := readyz(t, context.Background(), tc.checkers...)
			if code != tc.wantCode {
				t.Errorf("status = %d, want %d", code, tc.wantCode)
			}
			if d := cmp.Diff(tc.want, got); d != "" {
				t.Errorf("body mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestReadyz_CancelledRequest(t *testing.T) {
	t.Parallel()

	slow := health.Checker{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code, _ := readyz(t, ctx, slow); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	health.New(pass("store")).Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/readyz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /readyz = %d, want 405", rec.Code)
	}
}

func TestDegraded(t *testing.T) {
	t.Parallel()

	degraded := false
	c := health.Degraded("store", func() bool { return degraded })
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("healthy: %v", err)
	}
	degraded = true
	if err := c.Check(context.Background()); !errors.Is(err, health.ErrDegraded) {
		t.Errorf("degraded: err = %v, want ErrDegraded", err)
	}
}

func TestBreakers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  []resilience.BackendStatus
		wantErr bool
	}{
		{name: "none"},
		{
			name:   "primary open, fallback closed",
			status: []resilience.BackendStatus{{Name: "postgres", State: resilience.StateOpen}, {Name: "sqlite", State: resilience.StateClosed}},
		},
		{
			name:   "half open counts as available",
			status: []resilience.BackendStatus{{Name: "sqlite", State: resilience.StateHalfOpen}},
		},
		{
			name:    "all open",
			status:  []resilience.BackendStatus{{Name: "postgres", State: resilience.StateOpen}, {Name: "sqlite", State: resilience.StateOpen}},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := health.Breakers("store", func() []resilience.BackendStatus { return tc.status })
			if err := c.Check(context.Background()); (err != nil) != tc.wantErr {
				t.Errorf("Check() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		last    time.Time
		wantErr bool
	}{
		{name: "never ticked"},
		{name: "recent", last: time.Now()},
		{name: "stale", last: time.Now().Add(-time.Hour), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := health.Fresh("ambient", func() time.Time { return tc.last }, time.Minute)
			if err := c.Check(context.Background()); (err != nil) != tc.wantErr {
				t.Errorf("Check() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

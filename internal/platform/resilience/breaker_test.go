package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(threshold, trials int, clock *time.Time) *CircuitBreaker {
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   trials,
	})
	b.now = func() time.Time { return *clock }
	return b
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 17, 12, 0, 0, 0, time.UTC)
	b := newTestBreaker(2, 1, &now)

	var transitions []string
	b.OnStateChange(func(from, to CircuitState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	})

	require.NoError(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, CircuitStateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, CircuitStateOpen, b.State())
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got=%v", err)
	}

	now = now.Add(6 * time.Second)
	assert.Equal(t, CircuitStateHalfOpen, b.State())
	require.NoError(t, b.Allow())
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second trial call should be rejected, got=%v", err)
	}

	b.RecordSuccess()
	assert.Equal(t, CircuitStateClosed, b.State())
	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestCircuitBreaker_TrialFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 17, 12, 0, 0, 0, time.UTC)
	b := newTestBreaker(1, 2, &now)

	b.RecordFailure()
	now = now.Add(5 * time.Second)
	require.NoError(t, b.Allow())
	require.NoError(t, b.Allow())
	b.RecordSuccess()
	b.RecordFailure()

	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("unexpected state: got=%s want=%s", state, CircuitStateOpen)
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 17, 12, 0, 0, 0, time.UTC)
	errUpstream := errors.New("gamma down")
	errBadRequest := errors.New("bad request")
	transient := func(err error) bool { return errors.Is(err, errUpstream) }

	b := newTestBreaker(1, 1, &now)
	if err := b.Execute(func() error { return errBadRequest }, transient); !errors.Is(err, errBadRequest) {
		t.Fatalf("unexpected execute error: got=%v want=%v", err, errBadRequest)
	}
	assert.Equal(t, CircuitStateClosed, b.State(), "non-transient errors do not trip")

	_ = b.Execute(func() error { return errUpstream }, transient)
	calls := 0
	err := b.Execute(func() error { calls++; return nil }, transient)
	if !errors.Is(err, ErrCircuitOpen) || calls != 0 {
		t.Fatalf("expected short circuit: err=%v calls=%d", err, calls)
	}
}

func TestCircuitBreaker_DisabledIsNil(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: false, FailureThreshold: 1})
	if b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}

	calls := 0
	errBoom := errors.New("boom")
	for range 3 {
		if err := b.Execute(func() error { calls++; return errBoom }, nil); !errors.Is(err, errBoom) {
			t.Fatalf("unexpected error: got=%v want=%v", err, errBoom)
		}
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, CircuitStateClosed, b.State())
	b.OnStateChange(func(CircuitState, CircuitState) {})
}

func TestCircuitBreakerConfig_Defaults(t *testing.T) {
	t.Parallel()

	got := CircuitBreakerConfig{Enabled: true}.withDefaults()
	assert.Equal(t, defaultFailureThreshold, got.FailureThreshold)
	assert.Equal(t, defaultOpenTimeout, got.OpenTimeout)
	assert.Equal(t, defaultHalfOpenMaxReq, got.HalfOpenMaxReq)
}

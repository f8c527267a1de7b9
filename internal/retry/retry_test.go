package retry

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("throttled")
	errPermanent = errors.New("not found")
)

func isTransient(err error) bool { return errors.Is(err, errTransient) }

// recordingSleep captures requested delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestExecutor() (*Executor, *recordingSleep) {
	rec := &recordingSleep{}
	return New(slog.New(slog.DiscardHandler)).WithSleep(rec.sleep), rec
}

func TestDo_SucceedsOnThirdAttempt(t *testing.T) {
	exec, rec := newTestExecutor()
	calls := 0

	got, err := Do(t.Context(), exec, DefaultPolicy(isTransient), "list", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}

		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	exec, rec := newTestExecutor()
	calls := 0

	_, err := Do(t.Context(), exec, DefaultPolicy(isTransient), "get", func(context.Context) (int, error) {
		calls++
		return 0, errPermanent
	})

	require.Error(t, err)
	assert.Same(t, errPermanent, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDo_ExhaustionReturnsLastErrorUnchanged(t *testing.T) {
	exec, rec := newTestExecutor()
	calls := 0
	last := errors.Join(errTransient, errors.New("attempt 3"))

	_, err := Do(t.Context(), exec, DefaultPolicy(isTransient), "put", func(context.Context) (int, error) {
		calls++
		if calls == 3 {
			return 0, last
		}

		return 0, errTransient
	})

	assert.Same(t, last, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, rec.delays, 2)
}

func TestDo_NilClassifierNeverRetries(t *testing.T) {
	exec, _ := newTestExecutor()
	calls := 0

	_ = Exec(t.Context(), exec, Policy{MaxAttempts: 5}, "x", func(context.Context) error {
		calls++
		return errTransient
	})

	assert.Equal(t, 1, calls)
}

func TestDo_CanceledContextStops(t *testing.T) {
	exec, _ := newTestExecutor()
	ctx, cancel := context.WithCancel(t.Context())
	calls := 0

	err := Exec(ctx, exec, DefaultPolicy(isTransient), "x", func(context.Context) error {
		calls++
		cancel()

		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestDo_SleepInterruptedReturnsOperationError(t *testing.T) {
	exec := New(nil).WithSleep(func(context.Context, time.Duration) error {
		return context.Canceled
	})

	err := Exec(t.Context(), exec, DefaultPolicy(isTransient), "x", func(context.Context) error {
		return errTransient
	})

	assert.Same(t, errTransient, err)
}

func TestPolicy_Delay(t *testing.T) {
	p := DefaultPolicy(nil)

	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 16*time.Second, p.Delay(4))
	assert.Equal(t, 30*time.Second, p.Delay(5))
	assert.Equal(t, 30*time.Second, p.Delay(10))
	assert.Equal(t, 2*time.Second, p.Delay(0))
}

func TestPolicy_MultiplierBelowOneIsConstant(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Multiplier: 0}
	assert.Equal(t, time.Second, p.Delay(4))
}

func TestSleep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
	assert.NoError(t, Sleep(t.Context(), time.Millisecond))
}

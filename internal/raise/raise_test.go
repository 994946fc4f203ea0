package raise

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tiler/internal/types"
)

type sent struct {
	pid types.Pid
	req Request
}

type recorder struct {
	mu    sync.Mutex
	calls []sent
	fail  map[types.Pid]bool
}

func (r *recorder) Raise(pid types.Pid, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[pid] {
		return errors.New("app gone")
	}
	r.calls = append(r.calls, sent{pid: pid, req: req})
	return nil
}

func (r *recorder) snapshot() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.calls...)
}

func wid(pid types.Pid, idx uint32) types.WindowID { return types.NewWindowID(pid, idx) }

func TestRaiseGroupsByAppAndScreen(t *testing.T) {
	rec := &recorder{}
	m := New(rec)

	m.handle(RaiseRequest{Raise: []Target{
		{Window: wid(1, 1), Screen: 0},
		{Window: wid(2, 1), Screen: 0},
		{Window: wid(1, 2), Screen: 0},
		{Window: wid(1, 3), Screen: 1},
	}})

	calls := rec.snapshot()
	require.Len(t, calls, 3)
	assert.Equal(t, types.Pid(1), calls[0].pid)
	assert.Equal(t, []types.WindowID{wid(1, 1), wid(1, 2)}, calls[0].req.Windows)
	assert.Equal(t, types.Pid(2), calls[1].pid)
	assert.Equal(t, []types.WindowID{wid(1, 3)}, calls[2].req.Windows)
	for _, c := range calls {
		assert.Equal(t, uint64(1), c.req.Sequence)
		assert.False(t, c.req.Focus)
	}

	pending := m.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Outstanding)
}

func TestFocusSentAfterRaisesComplete(t *testing.T) {
	rec := &recorder{}
	var warped []types.Point
	m := New(rec, WithWarp(func(p types.Point) { warped = append(warped, p) }))

	focus := Target{Window: wid(1, 1)}
	m.handle(RaiseRequest{
		Raise:  []Target{{Window: wid(2, 1)}, {Window: wid(1, 1)}},
		Focus:  &focus,
		WarpTo: &types.Point{X: 50, Y: 60},
	})

	calls := rec.snapshot()
	require.Len(t, calls, 1, "focus waits for other raises")
	assert.Equal(t, []types.WindowID{wid(2, 1)}, calls[0].req.Windows)
	assert.Empty(t, warped)

	m.handle(RaiseCompleted{Window: wid(2, 1), Sequence: 1})

	calls = rec.snapshot()
	require.Len(t, calls, 2)
	assert.True(t, calls[1].req.Focus)
	assert.Equal(t, types.Pid(1), calls[1].pid)
	assert.Equal(t, []types.WindowID{wid(1, 1)}, calls[1].req.Windows)
	assert.Equal(t, []types.Point{{X: 50, Y: 60}}, warped)

	require.Len(t, m.Pending(), 1)
	assert.True(t, m.Pending()[0].FocusSent)

	m.handle(RaiseCompleted{Window: wid(1, 1), Sequence: 1})
	assert.Empty(t, m.Pending())
}

func TestFocusOnlySentImmediately(t *testing.T) {
	rec := &recorder{}
	m := New(rec)

	m.handle(RaiseRequest{Focus: &Target{Window: wid(3, 7)}, Quiet: true})

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].req.Focus)
	assert.True(t, calls[0].req.Quiet)
}

func TestNewRequestSupersedesSameFocus(t *testing.T) {
	rec := &recorder{}
	m := New(rec)
	focus := Target{Window: wid(1, 1)}

	m.handle(RaiseRequest{Raise: []Target{{Window: wid(2, 1)}}, Focus: &focus})
	m.handle(RaiseRequest{Raise: []Target{{Window: wid(3, 1)}}, Focus: &focus})

	pending := m.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, uint64(2), pending[0].Sequence)

	// late completion of the cancelled sequence is ignored
	m.handle(RaiseCompleted{Window: wid(2, 1), Sequence: 1})
	for _, c := range rec.snapshot() {
		assert.False(t, c.req.Focus && c.req.Sequence == 1, "cancelled sequence must not focus")
	}

	m.handle(RaiseCompleted{Window: wid(3, 1), Sequence: 2})
	calls := rec.snapshot()
	last := calls[len(calls)-1]
	assert.True(t, last.req.Focus)
	assert.Equal(t, uint64(2), last.req.Sequence)
}

func TestDifferentFocusTargetsRunSideBySide(t *testing.T) {
	m := New(&recorder{})
	a, b := Target{Window: wid(1, 1)}, Target{Window: wid(1, 2)}

	m.handle(RaiseRequest{Raise: []Target{{Window: wid(2, 1)}}, Focus: &a})
	m.handle(RaiseRequest{Raise: []Target{{Window: wid(2, 1)}}, Focus: &b})

	assert.Len(t, m.Pending(), 2)
}

func TestTimeoutSendsFocus(t *testing.T) {
	rec := &recorder{}
	m := New(rec)
	focus := Target{Window: wid(1, 1)}

	m.handle(RaiseRequest{Raise: []Target{{Window: wid(2, 1)}}, Focus: &focus})
	m.handle(RaiseTimeout{Sequence: 1})

	calls := rec.snapshot()
	require.Len(t, calls, 2)
	assert.True(t, calls[1].req.Focus)
	assert.Empty(t, m.Pending())
}

func TestFailedSendDoesNotBlockFocus(t *testing.T) {
	rec := &recorder{fail: map[types.Pid]bool{2: true}}
	m := New(rec)

	m.handle(RaiseRequest{Raise: []Target{{Window: wid(2, 1)}}, Focus: &Target{Window: wid(1, 1)}})

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].req.Focus)
}

func TestRunFiresTimeout(t *testing.T) {
	rec := &recorder{}
	m := New(rec, WithTimeout(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.NoError(t, m.Submit(RaiseRequest{
		Raise: []Target{{Window: wid(2, 1)}},
		Focus: &Target{Window: wid(1, 1)},
	}))

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2 && len(m.Pending()) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.ErrorIs(t, m.Submit(RaiseTimeout{}), ErrClosed)
}

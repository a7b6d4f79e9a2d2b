package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReceiverSeesPublishedValue(t *testing.T) {
	w := New(1)
	r := w.Subscribe()
	changed, err := r.HasChanged()
	require.NoError(t, err)
	require.False(t, changed)

	w.Send(2)
	changed, err = r.HasChanged()
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, 2, r.BorrowAndUpdate())
	changed, err = r.HasChanged()
	require.NoError(t, err)
	require.False(t, changed)
}

func TestHasChangedReturnsErrClosed(t *testing.T) {
	w := New(0)
	r := w.Subscribe()
	w.Close()
	_, err := r.HasChanged()
	require.ErrorIs(t, err, ErrClosed)
}

func TestChangedBlocksUntilSend(t *testing.T) {
	w := New("a")
	r := w.Subscribe()

	done := make(chan error, 1)
	go func() {
		done <- r.Changed(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Changed returned before any Send")
	case <-time.After(20 * time.Millisecond):
	}

	w.Send("b")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Changed did not unblock after Send")
	}
	require.Equal(t, "b", r.BorrowAndUpdate())
}

func TestChangedRespectsContextCancellation(t *testing.T) {
	w := New(0)
	r := w.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.Changed(ctx), context.Canceled)
}

func TestCloseWakesReceivers(t *testing.T) {
	w := New(0)
	r := w.Subscribe()
	w.Close()
	require.NoError(t, r.Changed(context.Background()))
	require.True(t, r.Closed())
}

func TestWaitChanReflectsPendingValue(t *testing.T) {
	w := New(0)
	r := w.Subscribe()
	w.Send(1)
	select {
	case <-r.WaitChan():
	default:
		t.Fatal("WaitChan should be immediately ready after a pending Send")
	}
}

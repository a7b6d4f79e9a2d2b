package enginestate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
)

type fakeForkchoiceEngine struct {
	calls  int
	status eth.PayloadStatusV
}

func (f *fakeForkchoiceEngine) ForkchoiceUpdate(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes, attrsTimestamp uint64) (eth.ForkchoiceUpdatedResult, error) {
	f.calls++
	return eth.ForkchoiceUpdatedResult{PayloadStatus: eth.PayloadStatus{Status: f.status}}, nil
}

func TestForkchoiceTaskSucceedsOnValid(t *testing.T) {
	eng := &fakeForkchoiceEngine{status: eth.ExecutionValid}
	task := NewForkchoiceTask(eng)
	state := New(ref(1))
	require.NoError(t, task.Execute(context.Background(), state))
	require.Equal(t, 1, eng.calls)
}

func TestForkchoiceTaskSyncingIsTransient(t *testing.T) {
	eng := &fakeForkchoiceEngine{status: eth.ExecutionSyncing}
	task := NewForkchoiceTask(eng)
	state := New(ref(1))
	err := task.Execute(context.Background(), state)
	require.ErrorIs(t, err, ErrForkchoiceSyncing)
}

func TestForkchoiceTaskInvalidIsFatal(t *testing.T) {
	eng := &fakeForkchoiceEngine{status: eth.ExecutionInvalid}
	task := NewForkchoiceTask(eng)
	state := New(ref(1))
	err := task.Execute(context.Background(), state)
	require.ErrorIs(t, err, ErrForkchoiceInvalid)
}

func TestForkchoiceTaskIsIdempotent(t *testing.T) {
	eng := &fakeForkchoiceEngine{status: eth.ExecutionValid}
	task := NewForkchoiceTask(eng)
	state := New(ref(1))
	require.NoError(t, task.Execute(context.Background(), state))
	require.NoError(t, task.Execute(context.Background(), state))
	require.Equal(t, 2, eng.calls)
}

func TestForkchoiceTaskUnexpectedStatus(t *testing.T) {
	eng := &fakeForkchoiceEngine{status: eth.ExecutionAccepted}
	task := NewForkchoiceTask(eng)
	state := New(ref(1))
	err := task.Execute(context.Background(), state)
	require.ErrorIs(t, err, ErrUnexpectedPayloadStatus)
}

package buildtask

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/prysmaticlabs/rollup-node/internal/enginestate"
	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/rollup"
)

func ref(n uint64) eth.L2BlockRef {
	return eth.L2BlockRef{Number: n, Hash: common.BigToHash(new(big.Int).SetUint64(n))}
}

func u64(v uint64) *uint64 { return &v }

func testCfg(holoceneTime *uint64) *rollup.Config {
	return &rollup.Config{HoloceneTime: holoceneTime}
}

func testAttrs(parent eth.L2BlockRef, timestamp uint64, txs []eth.Data) eth.OpAttributesWithParent {
	return eth.OpAttributesWithParent{
		Attributes: &eth.PayloadAttributes{Timestamp: timestamp, Transactions: txs},
		Parent:     parent,
		IsDerived:  true,
	}
}

// fakeEngine implements buildtask.Engine with scripted responses and call
// counters, and a scripted payload status per call stage.
type fakeEngine struct {
	fcuStatus        eth.PayloadStatusV
	fcuCalls         int
	getPayloadErr    error
	newPayloadStatus eth.PayloadStatusV
	newPayloadCalls  int
	// newPayloadSequence, if set, overrides newPayloadStatus per call index.
	newPayloadSequence []eth.PayloadStatusV
	builtBlockNumber   uint64
}

func (f *fakeEngine) ForkchoiceUpdate(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes, attrsTimestamp uint64) (eth.ForkchoiceUpdatedResult, error) {
	f.fcuCalls++
	id := eth.PayloadID{byte(f.fcuCalls)}
	return eth.ForkchoiceUpdatedResult{
		PayloadStatus: eth.PayloadStatus{Status: f.fcuStatus},
		PayloadID:     &id,
	}, nil
}

func (f *fakeEngine) GetPayload(ctx context.Context, id eth.PayloadID, timestamp uint64) (*eth.ExecutionPayloadEnvelope, error) {
	if f.getPayloadErr != nil {
		return nil, f.getPayloadErr
	}
	f.builtBlockNumber++
	return &eth.ExecutionPayloadEnvelope{
		ExecutionPayload: &eth.ExecutionPayload{
			Version:     eth.ExecutionPayloadV3,
			BlockNumber: f.builtBlockNumber,
			BlockHash:   common.BigToHash(new(big.Int).SetUint64(f.builtBlockNumber)),
			Timestamp:   timestamp,
		},
	}, nil
}

func (f *fakeEngine) NewPayload(ctx context.Context, envelope *eth.ExecutionPayloadEnvelope) (eth.PayloadStatus, error) {
	status := f.newPayloadStatus
	if f.newPayloadSequence != nil {
		status = f.newPayloadSequence[f.newPayloadCalls]
	}
	f.newPayloadCalls++
	return eth.PayloadStatus{Status: status}, nil
}

type noopForkchoice struct{ calls int }

func (n *noopForkchoice) Execute(ctx context.Context, state *enginestate.State) error {
	n.calls++
	return nil
}

func TestTaskHappyPathEcotone(t *testing.T) {
	eng := &fakeEngine{fcuStatus: eth.ExecutionValid, newPayloadStatus: eth.ExecutionValid}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))
	parent := ref(10)

	task := New(eng, &rollup.Config{EcotoneTime: u64(0)}, testAttrs(parent, 1000, nil), nil, fc, nil)
	envelope, err := task.Execute(context.Background(), state)

	require.NoError(t, err)
	require.NotNil(t, envelope)
	require.Equal(t, 1, eng.fcuCalls)
	require.Equal(t, uint64(1), state.UnsafeHead().Number)
	require.Equal(t, uint64(1), state.SafeHead().Number)
	require.Equal(t, 1, fc.calls)
}

func TestTaskForkchoiceUpdateSyncingIsTransient(t *testing.T) {
	eng := &fakeEngine{fcuStatus: eth.ExecutionSyncing}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))

	task := New(eng, testCfg(nil), testAttrs(ref(10), 1000, nil), nil, fc, nil)
	_, err := task.Execute(context.Background(), state)

	require.ErrorIs(t, err, ErrEngineSyncing)
	require.Equal(t, 0, fc.calls)
}

func TestTaskHoloceneDepositsOnlyReattempt(t *testing.T) {
	holoceneTime := u64(500)
	deposit := eth.Data{0x7E, 0x01}
	regular := eth.Data{0x02, 0xAA}

	eng := &fakeEngine{
		fcuStatus:          eth.ExecutionValid,
		newPayloadSequence: []eth.PayloadStatusV{eth.ExecutionInvalid, eth.ExecutionValid},
	}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))

	attrs := testAttrs(ref(10), 1000, []eth.Data{deposit, regular})
	task := New(eng, testCfg(holoceneTime), attrs, nil, fc, nil)
	envelope, err := task.Execute(context.Background(), state)

	require.ErrorIs(t, err, ErrHoloceneInvalidFlush)
	require.Nil(t, envelope)
	require.Equal(t, 2, eng.fcuCalls)
	require.Equal(t, 2, eng.newPayloadCalls)
	// The first GetPayload (rejected) and the re-attempt's GetPayload both
	// advance the fake engine's block counter; only the re-attempt commits.
	require.Equal(t, uint64(2), state.UnsafeHead().Number)
	require.Equal(t, 1, fc.calls)
}

func TestTaskPreHoloceneInvalidPayloadIsFatal(t *testing.T) {
	eng := &fakeEngine{fcuStatus: eth.ExecutionValid, newPayloadStatus: eth.ExecutionInvalid}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))

	attrs := testAttrs(ref(10), 1000, []eth.Data{{0x02}})
	task := New(eng, testCfg(nil), attrs, nil, fc, nil)
	_, err := task.Execute(context.Background(), state)

	require.ErrorIs(t, err, ErrNewPayloadFailed)
	require.Equal(t, 0, fc.calls)
}

func TestTaskDepositsOnlyPayloadFailureIsFatal(t *testing.T) {
	holoceneTime := u64(500)
	deposit := eth.Data{0x7E}
	eng := &fakeEngine{fcuStatus: eth.ExecutionValid, newPayloadStatus: eth.ExecutionInvalid}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))

	attrs := testAttrs(ref(10), 1000, []eth.Data{deposit})
	task := New(eng, testCfg(holoceneTime), attrs, nil, fc, nil)
	_, err := task.Execute(context.Background(), state)

	require.ErrorIs(t, err, ErrDepositOnlyPayloadFailed)
}

func TestTaskFinalizedAheadOfUnsafePrecondition(t *testing.T) {
	eng := &fakeEngine{}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))
	state.SetFinalizedHead(ref(20))

	task := New(eng, testCfg(nil), testAttrs(ref(10), 1000, nil), nil, fc, nil)
	_, err := task.Execute(context.Background(), state)

	require.ErrorIs(t, err, enginestate.ErrFinalizedAheadOfUnsafe)
	require.Equal(t, 0, eng.fcuCalls)
}

func TestTaskMissingPayloadIdIsFatal(t *testing.T) {
	eng := &missingPayloadIDEngine{}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))

	task := New(eng, testCfg(nil), testAttrs(ref(10), 1000, nil), nil, fc, nil)
	_, err := task.Execute(context.Background(), state)

	require.ErrorIs(t, err, ErrMissingPayloadId)
}

type missingPayloadIDEngine struct{}

func (missingPayloadIDEngine) ForkchoiceUpdate(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes, attrsTimestamp uint64) (eth.ForkchoiceUpdatedResult, error) {
	return eth.ForkchoiceUpdatedResult{PayloadStatus: eth.PayloadStatus{Status: eth.ExecutionValid}}, nil
}

func (missingPayloadIDEngine) GetPayload(ctx context.Context, id eth.PayloadID, timestamp uint64) (*eth.ExecutionPayloadEnvelope, error) {
	return nil, nil
}

func (missingPayloadIDEngine) NewPayload(ctx context.Context, envelope *eth.ExecutionPayloadEnvelope) (eth.PayloadStatus, error) {
	return eth.PayloadStatus{}, nil
}

func TestTaskSendsEnvelopeOnPayloadChannel(t *testing.T) {
	eng := &fakeEngine{fcuStatus: eth.ExecutionValid, newPayloadStatus: eth.ExecutionValid}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))
	ch := make(chan *eth.ExecutionPayloadEnvelope, 1)

	task := New(eng, testCfg(nil), testAttrs(ref(10), 1000, nil), ch, fc, nil)
	envelope, err := task.Execute(context.Background(), state)
	require.NoError(t, err)

	select {
	case got := <-ch:
		require.Equal(t, envelope, got)
	default:
		t.Fatal("expected envelope to be sent on payload channel")
	}
}

func TestTaskSendOnClosedChannelYieldsMpscSendError(t *testing.T) {
	eng := &fakeEngine{fcuStatus: eth.ExecutionValid, newPayloadStatus: eth.ExecutionValid}
	fc := &noopForkchoice{}
	state := enginestate.New(ref(10))
	ch := make(chan *eth.ExecutionPayloadEnvelope, 1)
	close(ch)

	task := New(eng, testCfg(nil), testAttrs(ref(10), 1000, nil), ch, fc, nil)
	_, err := task.Execute(context.Background(), state)

	require.ErrorIs(t, err, ErrMpscSend)
}

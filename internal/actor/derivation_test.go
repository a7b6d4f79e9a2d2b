package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prysmaticlabs/rollup-node/internal/derivation"
	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/rollup"
	"github.com/prysmaticlabs/rollup-node/internal/watch"
)

type scriptedPipeline struct {
	cfg *rollup.Config
}

func (p *scriptedPipeline) Step(safeHead eth.L2BlockRef) derivation.StepResult {
	return derivation.StepResult{Kind: derivation.StepFailed, Err: &derivation.TemporaryError{Err: derivation.ErrNotEnoughData}}
}
func (p *scriptedPipeline) Next() (eth.OpAttributesWithParent, bool) { return eth.OpAttributesWithParent{}, false }
func (p *scriptedPipeline) Signal(sig derivation.Signal) error       { return nil }
func (p *scriptedPipeline) Origin() eth.BlockID                      { return eth.BlockID{} }
func (p *scriptedPipeline) RollupConfig() *rollup.Config             { return p.cfg }
func (p *scriptedPipeline) SystemConfigByNumber(uint64) (rollup.SystemConfig, error) {
	return rollup.SystemConfig{}, nil
}

func TestTickReturnsShutdownOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l1w := watch.New(eth.BlockInfo{})
	safew := watch.New(eth.L2BlockRef{Number: 1, Hash: [32]byte{1}})
	a := New(derivation.New(&scriptedPipeline{cfg: &rollup.Config{}}, nil), Inbound{
		L1HeadUpdates:    l1w.Subscribe(),
		L2SafeHead:       safew.Subscribe(),
		DerivationSignal: make(chan derivation.Signal),
	}, Outbound{
		AttributesOut: make(chan eth.OpAttributesWithParent, 16),
		ResetRequest:  make(chan struct{}, 16),
	})

	err := a.tick(ctx)
	require.ErrorIs(t, err, errShutdown)
}

func TestTickPrioritizesSignalOverL1Update(t *testing.T) {
	l1w := watch.New(eth.BlockInfo{})
	safew := watch.New(eth.L2BlockRef{Number: 1, Hash: [32]byte{1}})
	l1w.Send(eth.BlockInfo{Number: 5})

	signals := make(chan derivation.Signal, 1)
	signals <- derivation.Signal{Kind: derivation.SignalFlushChannel}

	a := New(derivation.New(&scriptedPipeline{cfg: &rollup.Config{}}, nil), Inbound{
		L1HeadUpdates:    l1w.Subscribe(),
		L2SafeHead:       safew.Subscribe(),
		DerivationSignal: signals,
	}, Outbound{
		AttributesOut: make(chan eth.OpAttributesWithParent, 16),
		ResetRequest:  make(chan struct{}, 16),
	})

	err := a.tick(context.Background())
	require.NoError(t, err)
	// The signal should have been drained; the L1 update remains pending
	// for a subsequent tick.
	require.Len(t, signals, 0)
}

func TestStartReturnsCleanlyOnClosedL1Watch(t *testing.T) {
	l1w := watch.New(eth.BlockInfo{})
	safew := watch.New(eth.L2BlockRef{Number: 1, Hash: [32]byte{1}})
	l1w.Close()

	a := New(derivation.New(&scriptedPipeline{cfg: &rollup.Config{}}, nil), Inbound{
		L1HeadUpdates:    l1w.Subscribe(),
		L2SafeHead:       safew.Subscribe(),
		DerivationSignal: make(chan derivation.Signal),
	}, Outbound{
		AttributesOut: make(chan eth.OpAttributesWithParent, 16),
		ResetRequest:  make(chan struct{}, 16),
	})

	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after L1 watch closed")
	}
}

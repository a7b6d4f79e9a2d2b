// Package actor wires the Derivation State into a cooperative event loop:
// the Derivation Actor multiplexes L1 head updates, L2 safe-head updates,
// inbound signals, EL-sync completion, and cancellation with fixed,
// biased priority.
package actor

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/prysmaticlabs/rollup-node/internal/derivation"
	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/watch"
)

var log = logrus.WithField("prefix", "actor")

// Inbound is the set of channels the Derivation Actor consumes.
type Inbound struct {
	// L1HeadUpdates is a watch of the latest observed L1 block; Borrow
	// returns the zero BlockInfo until the first observation.
	L1HeadUpdates *watch.Receiver[eth.BlockInfo]
	// L2SafeHead is a watch of the engine's safe head; an all-zero hash
	// means the engine has not yet reported one.
	L2SafeHead *watch.Receiver[eth.L2BlockRef]
	// ElSyncComplete fires exactly once, when the execution layer
	// finishes initial sync.
	ElSyncComplete <-chan struct{}
	// DerivationSignal carries Reset/Activation/FlushChannel signals.
	DerivationSignal <-chan derivation.Signal
}

// Outbound is the set of channels the Derivation Actor produces on, both
// of bounded capacity 16 per the design.
type Outbound struct {
	AttributesOut chan<- eth.OpAttributesWithParent
	ResetRequest  chan<- struct{}
}

// NewChannels constructs a matched pair of Outbound send-ends and their
// corresponding receive-ends, each with the bounded capacity the design
// mandates.
func NewChannels() (Outbound, chan eth.OpAttributesWithParent, chan struct{}) {
	const capacity = 16
	attrs := make(chan eth.OpAttributesWithParent, capacity)
	reset := make(chan struct{}, capacity)
	return Outbound{AttributesOut: attrs, ResetRequest: reset}, attrs, reset
}

// DerivationActor owns a Derivation State and drives it from the
// multiplexed event sources in Inbound.
type DerivationActor struct {
	state    *derivation.State
	inbound  Inbound
	outbound Outbound

	elSyncComplete   bool
	elSyncCompleteCh <-chan struct{}
}

// New constructs a Derivation Actor. inbound.ElSyncComplete should be the
// single one-shot completion channel; it is consumed internally once it
// fires.
func New(state *derivation.State, inbound Inbound, outbound Outbound) *DerivationActor {
	return &DerivationActor{
		state:            state,
		inbound:          inbound,
		outbound:         outbound,
		elSyncCompleteCh: inbound.ElSyncComplete,
	}
}

// Start runs the actor's event loop until ctx is cancelled or a fatal
// error occurs. The loop applies fixed, biased priority on every
// iteration: cancellation, then signal receipt, then L1 head changes,
// then L2 safe-head changes, then (only while not yet observed)
// EL-sync completion.
func (a *DerivationActor) Start(ctx context.Context) error {
	for {
		if err := a.tick(ctx); err != nil {
			if err == errShutdown {
				return nil
			}
			return err
		}
	}
}

// errShutdown is a private sentinel for "cancellation observed, return
// cleanly" - it never escapes Start.
var errShutdown = &shutdownError{}

type shutdownError struct{}

func (*shutdownError) Error() string { return "derivation actor shutdown" }

// tick runs one iteration of the biased event loop. It returns
// errShutdown on cancellation, nil to continue looping, or any other
// error as fatal.
func (a *DerivationActor) tick(ctx context.Context) error {
	// Priority 1: cancellation.
	select {
	case <-ctx.Done():
		log.Info("derivation actor shutting down: context cancelled")
		return errShutdown
	default:
	}

	// Priority 2: signal receipt.
	select {
	case sig, ok := <-a.inbound.DerivationSignal:
		if !ok {
			return derivation.ErrSignalReceiveFailed
		}
		a.state.Signal(sig)
		return nil
	default:
	}

	// Priority 3: L1 head changed.
	l1Wait := a.inbound.L1HeadUpdates.WaitChan()
	select {
	case <-l1Wait:
		if a.inbound.L1HeadUpdates.Closed() {
			log.Warn("l1 head watch closed without cancellation; treating as orderly shutdown")
			return errShutdown
		}
		a.inbound.L1HeadUpdates.BorrowAndUpdate()
		return a.state.Process(derivation.NewDataAvailable, a.elSyncComplete, a.inbound.L2SafeHead, a.outbound.AttributesOut, a.outbound.ResetRequest)
	default:
	}

	// Priority 4: L2 safe head changed.
	safeHeadWait := a.inbound.L2SafeHead.WaitChan()
	select {
	case <-safeHeadWait:
		// Mark the wake-time value seen immediately (mirroring
		// tokio::sync::watch::Receiver::changed()'s auto-ack); State.Process
		// re-acks after a successful produce to capture any value that
		// arrived between this wake and that success.
		a.inbound.L2SafeHead.BorrowAndUpdate()
		return a.state.Process(derivation.SafeHeadUpdated, a.elSyncComplete, a.inbound.L2SafeHead, a.outbound.AttributesOut, a.outbound.ResetRequest)
	default:
	}

	// Priority 5: EL sync completed, one-shot, only while not yet seen.
	if !a.elSyncComplete && a.elSyncCompleteCh != nil {
		select {
		case <-a.elSyncCompleteCh:
			log.Info("EL sync complete")
			a.elSyncComplete = true
			return a.state.Process(derivation.NewDataAvailable, a.elSyncComplete, a.inbound.L2SafeHead, a.outbound.AttributesOut, a.outbound.ResetRequest)
		default:
		}
	}

	// Nothing ready without blocking: block on the full priority set so
	// cancellation and signals are never missed while idle, but bias the
	// select by re-checking priority 1 and 2 first on the next wake.
	elSyncCompleteCh := a.elSyncCompleteCh
	if a.elSyncComplete {
		elSyncCompleteCh = nil
	}
	select {
	case <-ctx.Done():
		log.Info("derivation actor shutting down: context cancelled")
		return errShutdown
	case sig, ok := <-a.inbound.DerivationSignal:
		if !ok {
			return derivation.ErrSignalReceiveFailed
		}
		a.state.Signal(sig)
		return nil
	case <-l1Wait:
		if a.inbound.L1HeadUpdates.Closed() {
			log.Warn("l1 head watch closed without cancellation; treating as orderly shutdown")
			return errShutdown
		}
		a.inbound.L1HeadUpdates.BorrowAndUpdate()
		return a.state.Process(derivation.NewDataAvailable, a.elSyncComplete, a.inbound.L2SafeHead, a.outbound.AttributesOut, a.outbound.ResetRequest)
	case <-safeHeadWait:
		a.inbound.L2SafeHead.BorrowAndUpdate()
		return a.state.Process(derivation.SafeHeadUpdated, a.elSyncComplete, a.inbound.L2SafeHead, a.outbound.AttributesOut, a.outbound.ResetRequest)
	case <-elSyncCompleteCh:
		log.Info("EL sync complete")
		a.elSyncComplete = true
		return a.state.Process(derivation.NewDataAvailable, a.elSyncComplete, a.inbound.L2SafeHead, a.outbound.AttributesOut, a.outbound.ResetRequest)
	}
}

// Package buildtask implements the Build Task: the single-execution state
// machine that turns payload attributes into an imported, canonicalized L2
// block via forkchoiceUpdated, getPayload, and newPayload.
package buildtask

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prysmaticlabs/rollup-node/internal/enginestate"
	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/rollup"
)

var log = logrus.WithField("prefix", "buildtask")

// Engine is the subset of the engine client the Build Task needs.
type Engine interface {
	ForkchoiceUpdate(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes, attrsTimestamp uint64) (eth.ForkchoiceUpdatedResult, error)
	GetPayload(ctx context.Context, id eth.PayloadID, timestamp uint64) (*eth.ExecutionPayloadEnvelope, error)
	NewPayload(ctx context.Context, envelope *eth.ExecutionPayloadEnvelope) (eth.PayloadStatus, error)
}

// Forkchoice is the canonicalizing collaborator invoked in Phase C.
type Forkchoice interface {
	Execute(ctx context.Context, state *enginestate.State) error
}

// Task is a single-use build: exactly one call to Execute is expected per
// instance (a deposits-only re-attempt constructs a fresh Task rather than
// reusing this one).
type Task struct {
	Engine     Engine
	Cfg        *rollup.Config
	Attributes eth.OpAttributesWithParent
	PayloadTx  chan<- *eth.ExecutionPayloadEnvelope
	Forkchoice Forkchoice
	Metrics    Metrics
}

// New constructs a Task. payloadTx and metrics may be nil; a nil metrics
// falls back to NoopMetrics.
func New(engine Engine, cfg *rollup.Config, attrs eth.OpAttributesWithParent, payloadTx chan<- *eth.ExecutionPayloadEnvelope, forkchoice Forkchoice, metrics Metrics) *Task {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Task{
		Engine:     engine,
		Cfg:        cfg,
		Attributes: attrs,
		PayloadTx:  payloadTx,
		Forkchoice: forkchoice,
		Metrics:    metrics,
	}
}

// Execute runs the Build Task to completion against state, mutating it on
// success. An error from the opening invariant check, Phase A or Phase B
// leaves state unmutated by this call, except that an inner deposits-only
// re-attempt may have committed (always so in the ErrHoloceneInvalidFlush
// case). An error from the canonicalizing Forkchoice call or the envelope
// send is returned after the new heads have already been committed.
func (t *Task) Execute(ctx context.Context, state *enginestate.State) (*eth.ExecutionPayloadEnvelope, error) {
	if err := state.CheckInvariant(); err != nil {
		return nil, err
	}

	forkchoice := state.CreateForkchoiceState()
	// We ask the EL to build atop the attributes' parent, which may be a
	// reorg target distinct from the currently materialized unsafe head.
	forkchoice.HeadBlockHash = t.Attributes.Parent.Hash

	reqID := uuid.New()
	entry := log.WithFields(logrus.Fields{
		"req_id":    reqID,
		"parent":    t.Attributes.Parent.Hash,
		"timestamp": t.Attributes.Attributes.Timestamp,
		"derived":   t.Attributes.IsDerived,
	})

	fcuStart := time.Now()
	payloadID, err := t.startBuild(ctx, forkchoice)
	fcuDuration := time.Since(fcuStart)
	t.Metrics.ObservePhaseADuration(fcuDuration)
	if err != nil {
		return nil, err
	}

	importStart := time.Now()
	envelope, newRef, err := t.fetchAndImport(ctx, state, payloadID)
	importDuration := time.Since(importStart)
	t.Metrics.ObservePhaseBDuration(importDuration)
	if err != nil {
		return nil, err
	}

	state.SetUnsafeHead(newRef)
	state.SetCrossUnsafeHead(newRef)
	if t.Attributes.IsDerived {
		state.SetLocalSafeHead(newRef)
		state.SetSafeHead(newRef)
	}

	if err := t.Forkchoice.Execute(ctx, state); err != nil {
		return nil, err
	}

	if t.PayloadTx != nil {
		if err := sendEnvelope(ctx, t.PayloadTx, envelope); err != nil {
			return nil, err
		}
	}

	entry.WithFields(logrus.Fields{
		"l2_number":             newRef.Number,
		"fcu_duration":          fcuDuration,
		"block_import_duration": importDuration,
	}).Info("built and imported new block")

	return envelope, nil
}

// startBuild is Phase A: forkchoiceUpdated with attributes.
func (t *Task) startBuild(ctx context.Context, fcs eth.ForkchoiceState) (eth.PayloadID, error) {
	result, err := t.Engine.ForkchoiceUpdate(ctx, fcs, t.Attributes.Attributes, 0)
	if err != nil {
		return eth.PayloadID{}, fmt.Errorf("%w: %v", ErrForkchoiceUpdateFailed, err)
	}

	switch result.PayloadStatus.Status {
	case eth.ExecutionValid:
		if result.PayloadID == nil {
			return eth.PayloadID{}, ErrMissingPayloadId
		}
		return *result.PayloadID, nil
	case eth.ExecutionInvalid:
		return eth.PayloadID{}, fmt.Errorf("%w: %s", ErrForkchoiceUpdateFailed, result.PayloadStatus)
	case eth.ExecutionSyncing:
		return eth.PayloadID{}, ErrEngineSyncing
	default:
		return eth.PayloadID{}, fmt.Errorf("%w: status=%s", ErrUnexpectedPayloadStatus, result.PayloadStatus.Status)
	}
}

// fetchAndImport is Phase B: getPayload followed by newPayload, including
// the post-Holocene deposits-only re-attempt fallback.
func (t *Task) fetchAndImport(ctx context.Context, state *enginestate.State, payloadID eth.PayloadID) (*eth.ExecutionPayloadEnvelope, eth.L2BlockRef, error) {
	timestamp := t.Attributes.Attributes.Timestamp

	envelope, err := t.Engine.GetPayload(ctx, payloadID, timestamp)
	if err != nil {
		return nil, eth.L2BlockRef{}, fmt.Errorf("%w: %v", ErrGetPayloadFailed, err)
	}

	status, err := t.Engine.NewPayload(ctx, envelope)
	if err != nil {
		return nil, eth.L2BlockRef{}, fmt.Errorf("%w: %v", ErrNewPayloadFailed, err)
	}

	switch status.Status {
	case eth.ExecutionValid, eth.ExecutionSyncing:
		ref := rollup.DeriveL2BlockRef(envelope.ExecutionPayload, t.Attributes.Parent)
		return envelope, ref, nil
	case eth.ExecutionInvalid:
		return t.recoverFromInvalidPayload(ctx, state, status, timestamp)
	default:
		return nil, eth.L2BlockRef{}, fmt.Errorf("%w: status=%s", ErrUnexpectedPayloadStatus, status.Status)
	}
}

// recoverFromInvalidPayload implements the three-way branch on a
// newPayload INVALID response.
func (t *Task) recoverFromInvalidPayload(ctx context.Context, state *enginestate.State, status eth.PayloadStatus, timestamp uint64) (*eth.ExecutionPayloadEnvelope, eth.L2BlockRef, error) {
	if t.Attributes.IsDepositsOnly() {
		log.WithField("validation_error", status.ValidationError).Error("deposits-only payload import failed")
		return nil, eth.L2BlockRef{}, ErrDepositOnlyPayloadFailed
	}

	if !t.Cfg.IsHoloceneActive(timestamp) {
		return nil, eth.L2BlockRef{}, fmt.Errorf("%w: %s", ErrNewPayloadFailed, status)
	}

	log.WithField("validation_error", status.ValidationError).Warn("payload import failed, re-attempting with deposits only")
	reattempt := New(t.Engine, t.Cfg, *t.Attributes.AsDepositsOnly(), t.PayloadTx, t.Forkchoice, t.Metrics)
	if _, err := reattempt.Execute(ctx, state); err != nil {
		return nil, eth.L2BlockRef{}, fmt.Errorf("%w: %v", ErrDepositOnlyPayloadReattemptFailed, err)
	}

	log.Info("successfully imported deposits-only payload")
	t.Metrics.RecordHoloceneFlush()
	return nil, eth.L2BlockRef{}, ErrHoloceneInvalidFlush
}

// sendEnvelope forwards envelope on ch, converting a send on a closed
// channel into ErrMpscSend instead of panicking, and respecting
// cancellation while blocked on a full channel.
func sendEnvelope(ctx context.Context, ch chan<- *eth.ExecutionPayloadEnvelope, envelope *eth.ExecutionPayloadEnvelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMpscSend, r)
		}
	}()
	select {
	case ch <- envelope:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package derivation

import (
	"errors"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
)

// ErrNotEnoughData is the distinguished Temporary error that keeps the
// stepping loop spinning: the stage has more useful work to do once more
// L1 data is available, as opposed to a generic Temporary error which
// yields.
var ErrNotEnoughData = errors.New("not enough data")

// TemporaryError wraps a pipeline failure the Derivation State treats as
// transient: it never propagates upstream. Err == ErrNotEnoughData keeps
// stepping; any other Err yields.
type TemporaryError struct {
	Err error
}

func (e *TemporaryError) Error() string { return "temporary: " + e.Err.Error() }
func (e *TemporaryError) Unwrap() error { return e.Err }

// ResetErrKind distinguishes why the pipeline is requesting a reset.
type ResetErrKind int

const (
	// ReorgDetected means the pipeline observed an L1 reorg away from a
	// previously derived origin.
	ReorgDetected ResetErrKind = iota
	// HoloceneActivation means the pipeline crossed the Holocene
	// activation boundary and needs an Activation signal, not a full
	// pipeline reset.
	HoloceneActivation
)

// ResetError wraps a pipeline failure that requires a Reset or Activation
// signal before stepping can continue.
type ResetError struct {
	Kind     ResetErrKind
	Expected eth.BlockID
	New      eth.BlockID
	Err      error
}

func (e *ResetError) Error() string { return "reset required: " + e.Err.Error() }
func (e *ResetError) Unwrap() error { return e.Err }

// CriticalError wraps a pipeline failure that is fatal to the Derivation
// Actor: it propagates to the supervisor as Fatal(Pipeline(err)).
type CriticalError struct {
	Err error
}

func (e *CriticalError) Error() string { return "critical: " + e.Err.Error() }
func (e *CriticalError) Unwrap() error { return e.Err }

// Fatal errors surfaced by Derivation State/Actor operations beyond the
// pipeline's own error taxonomy.
var (
	ErrSignalReceiveFailed     = errors.New("derivation signal channel closed")
	ErrL2SafeHeadReceiveFailed = errors.New("l2 safe head watch receive failed")
)

package derivation

import (
	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/rollup"
)

// Pipeline is the set of capabilities Derivation State needs from the
// concrete derivation pipeline (batch decoding, channel reassembly, frame
// queues): it is parameterized once at construction and otherwise treated
// opaquely, so any implementation satisfying this interface can drive the
// state machine below.
type Pipeline interface {
	// Step advances the pipeline by one unit of work given the current L2
	// safe head, returning the outcome below.
	Step(safeHead eth.L2BlockRef) StepResult
	// Next drains a prepared attribute set, if the most recent Step
	// produced one. ok is false if nothing is ready yet.
	Next() (attrs eth.OpAttributesWithParent, ok bool)
	// Signal delivers a Reset, Activation, or FlushChannel signal to the
	// pipeline's stages.
	Signal(sig Signal) error
	// Origin returns the L1 origin the pipeline is currently anchored to.
	Origin() eth.BlockID
	// RollupConfig returns the static rollup configuration the pipeline
	// was constructed with.
	RollupConfig() *rollup.Config
	// SystemConfigByNumber resolves the L1-governed system configuration
	// in effect at the given L2 block number.
	SystemConfigByNumber(l2Number uint64) (rollup.SystemConfig, error)
}

// StepResult is the outcome of a single Pipeline.Step call.
type StepResult struct {
	Kind StepResultKind
	// Err is populated for OriginAdvanceErr and StepFailed.
	Err error
}

// StepResultKind tags the variant of a StepResult.
type StepResultKind int

const (
	// PreparedAttributes indicates the pipeline has an attribute set
	// ready to be drained with Next.
	PreparedAttributes StepResultKind = iota
	// AdvancedOrigin indicates the pipeline consumed a new L1 block
	// without producing attributes yet.
	AdvancedOrigin
	// OriginAdvanceErr indicates advancing the L1 origin failed; Err
	// classifies the failure.
	OriginAdvanceErr
	// StepFailed indicates the step itself failed; Err classifies the
	// failure.
	StepFailed
)

// Signal is a tagged message delivered to the pipeline out-of-band from
// normal stepping.
type Signal struct {
	Kind         SignalKind
	L1Origin     eth.BlockID
	SystemConfig rollup.SystemConfig
	L2SafeHead   eth.L2BlockRef
}

// SignalKind tags the variant of a Signal.
type SignalKind int

const (
	// SignalReset rewinds the pipeline to resume derivation from
	// L2SafeHead/L1Origin, e.g. after an L1 reorg.
	SignalReset SignalKind = iota
	// SignalActivation notifies the pipeline of a hard-fork activation
	// boundary (e.g. Holocene), carrying the same fields as a Reset.
	SignalActivation
	// SignalFlushChannel drops any buffered, not-yet-derived batches,
	// issued after a Holocene deposits-only fallback.
	SignalFlushChannel
)

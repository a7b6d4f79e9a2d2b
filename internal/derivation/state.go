// Package derivation implements Derivation State: the stepping loop that
// drives a derivation pipeline from L1 data to L2 payload attributes,
// classifying pipeline errors into transient, signal-requiring, and fatal
// outcomes.
package derivation

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/watch"
)

var log = logrus.WithField("prefix", "derivation")

// InboundMessage distinguishes why produce/process was woken, so State can
// apply the right skip guards.
type InboundMessage int

const (
	// NewDataAvailable indicates an L1 head change or EL-sync completion.
	NewDataAvailable InboundMessage = iota
	// SafeHeadUpdated indicates the L2 safe head watch changed.
	SafeHeadUpdated
)

// ProduceOutcome tags the result of produceNextAttributes.
type ProduceOutcome int

const (
	// OutcomeAttributes means attrs is populated and ready to send.
	OutcomeAttributes ProduceOutcome = iota
	// OutcomeYield means there is nothing more to do until the next wake.
	OutcomeYield
	// OutcomeFatal means a Critical pipeline error occurred; err is set.
	OutcomeFatal
)

// State holds the pipeline and the two sticky flags that gate stepping
// across wakes: derivationIdle (true iff the last step yielded for more
// data) and waitingForSignal (true iff a reset/activation was requested
// and must land before stepping resumes).
type State struct {
	pipeline         Pipeline
	metrics          Metrics
	derivationIdle   bool
	waitingForSignal bool
}

// New constructs a Derivation State over pipeline. metrics may be nil, in
// which case observations are discarded.
func New(pipeline Pipeline, metrics Metrics) *State {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &State{pipeline: pipeline, metrics: metrics}
}

// WaitingForSignal reports whether stepping is currently gated on a
// pending reset/activation signal.
func (s *State) WaitingForSignal() bool { return s.waitingForSignal }

// Signal forwards sig to the pipeline, fire-and-forget: errors
// are logged, not propagated, and a Reset signal's L1 origin is published
// as a metric. Delivering any signal clears waitingForSignal, resuming
// stepping on the next wake - the signal having landed is exactly what
// stepping was paused for.
func (s *State) Signal(sig Signal) {
	if sig.Kind == SignalReset {
		s.metrics.SetL1Origin(sig.L1Origin.Number)
	}
	if err := s.pipeline.Signal(sig); err != nil {
		log.WithError(err).Warn("pipeline rejected signal")
	}
	s.waitingForSignal = false
}

// produceNextAttributes repeatedly steps the pipeline, driven by the
// current L2 safe head, until it produces attributes, needs to yield, or
// hits a fatal error.
func (s *State) produceNextAttributes(safeHead *watch.Receiver[eth.L2BlockRef], resetTx chan<- struct{}) (eth.OpAttributesWithParent, ProduceOutcome, error) {
	for {
		l2SafeHead := safeHead.Borrow()

		result := s.pipeline.Step(l2SafeHead)
		switch result.Kind {
		case PreparedAttributes:
			// fall through to Next() below
		case AdvancedOrigin:
			s.metrics.SetL1Origin(s.pipeline.Origin().Number)
			continue
		case OriginAdvanceErr, StepFailed:
			outcome, err := s.classifyStepError(result.Err, l2SafeHead, resetTx)
			if outcome != OutcomeAttributes {
				return eth.OpAttributesWithParent{}, outcome, err
			}
			// Temporary(NotEnoughData) or Holocene activation: keep stepping.
			continue
		default:
			return eth.OpAttributesWithParent{}, OutcomeFatal, fmt.Errorf("unknown step result kind %d", result.Kind)
		}

		if attrs, ok := s.pipeline.Next(); ok {
			return attrs, OutcomeAttributes, nil
		}
		// No attributes drained yet despite PreparedAttributes; step again.
	}
}

// classifyStepError implements the transient/reset/critical classification.
// A return of (OutcomeAttributes, nil) tells the caller to keep stepping
// (the Temporary(NotEnoughData) and Holocene-activation cases); any other
// outcome should be
// returned directly from produceNextAttributes.
func (s *State) classifyStepError(err error, safeHead eth.L2BlockRef, resetTx chan<- struct{}) (ProduceOutcome, error) {
	var temp *TemporaryError
	if errors.As(err, &temp) {
		if errors.Is(temp.Err, ErrNotEnoughData) {
			return OutcomeAttributes, nil
		}
		log.WithError(err).Debug("temporary pipeline error, yielding")
		return OutcomeYield, nil
	}

	var reset *ResetError
	if errors.As(err, &reset) {
		sysCfg, cfgErr := s.pipeline.SystemConfigByNumber(safeHead.Number)
		if cfgErr != nil {
			return OutcomeFatal, fmt.Errorf("resolving system config for reset: %w", cfgErr)
		}

		if reset.Kind == HoloceneActivation {
			s.Signal(Signal{
				Kind:         SignalActivation,
				L1Origin:     s.pipeline.Origin(),
				SystemConfig: sysCfg,
				L2SafeHead:   safeHead,
			})
			return OutcomeAttributes, nil
		}

		if reset.Kind == ReorgDetected {
			s.metrics.RecordReorg()
		}

		if !s.pipeline.RollupConfig().IsInteropActive(safeHead.Time) {
			sent := func() (ok bool) {
				defer func() {
					if recover() != nil {
						ok = false
					}
				}()
				select {
				case resetTx <- struct{}{}:
					return true
				default:
					return false
				}
			}()
			if !sent {
				return OutcomeFatal, errors.New("reset request channel full or closed")
			}
		}
		s.waitingForSignal = true
		return OutcomeYield, nil
	}

	var critical *CriticalError
	if errors.As(err, &critical) {
		s.metrics.RecordCriticalError()
		return OutcomeFatal, fmt.Errorf("pipeline critical error: %w", critical)
	}

	return OutcomeFatal, fmt.Errorf("unclassified pipeline error: %w", err)
}

// Process drives one wake of the stepping loop, applying its ordered
// skip guards before calling produceNextAttributes.
func (s *State) Process(
	msg InboundMessage,
	elSyncComplete bool,
	safeHead *watch.Receiver[eth.L2BlockRef],
	attrsOut chan<- eth.OpAttributesWithParent,
	resetTx chan<- struct{},
) error {
	if !elSyncComplete {
		return nil
	}
	if s.waitingForSignal {
		return nil
	}
	if !s.derivationIdle && msg != SafeHeadUpdated {
		changed, err := safeHead.HasChanged()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrL2SafeHeadReceiveFailed, err)
		}
		if !changed {
			return nil
		}
	}

	snapshot := safeHead.Borrow()
	if snapshot.IsZero() {
		return nil
	}

	attrs, outcome, err := s.produceNextAttributes(safeHead, resetTx)
	switch outcome {
	case OutcomeYield:
		s.derivationIdle = true
		s.metrics.SetDerivationIdle(true)
		return nil
	case OutcomeFatal:
		return err
	}

	s.derivationIdle = false
	s.metrics.SetDerivationIdle(false)
	// Mark the safe head as seen only now that downstream processing
	// succeeded, so a spurious wake can never cause the same value to be
	// processed twice while a genuine change is never missed.
	safeHead.BorrowAndUpdate()

	return sendAttributes(attrsOut, attrs)
}

// sendAttributes delivers attrs on attrsOut, converting a send on a
// closed channel into an error instead of panicking. A full (but open)
// channel blocks, providing backpressure onto derivation as designed.
func sendAttributes(attrsOut chan<- eth.OpAttributesWithParent, attrs eth.OpAttributesWithParent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("attributes channel send failed: %v", r)
		}
	}()
	attrsOut <- attrs
	return nil
}

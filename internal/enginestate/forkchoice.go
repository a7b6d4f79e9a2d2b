package enginestate

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
)

var log = logrus.WithField("prefix", "enginestate")

// ForkchoiceEngine is the subset of the engine client the Forkchoice Task
// needs: an FCU call with no attributes.
type ForkchoiceEngine interface {
	ForkchoiceUpdate(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes, attrsTimestamp uint64) (eth.ForkchoiceUpdatedResult, error)
}

// ForkchoiceTask issues a forkchoiceUpdated call with no attributes at the
// state's currently materialized heads, to canonicalize a freshly imported
// block. It observes the same payload-status contract the Build Task's FCU
// does: VALID is success, SYNCING is a transient failure, INVALID is fatal
// to this canonicalization attempt.
type ForkchoiceTask struct {
	Engine ForkchoiceEngine
}

// NewForkchoiceTask constructs a ForkchoiceTask bound to an engine client.
func NewForkchoiceTask(engine ForkchoiceEngine) *ForkchoiceTask {
	return &ForkchoiceTask{Engine: engine}
}

// Execute issues the canonicalizing FCU. Calling Execute twice in a row
// against an unchanged State is idempotent: both calls observe the same
// forkchoice triple and both succeed (or fail) identically.
func (t *ForkchoiceTask) Execute(ctx context.Context, state *State) error {
	fcs := state.CreateForkchoiceState()
	result, err := t.Engine.ForkchoiceUpdate(ctx, fcs, nil, state.unsafeHead.Time)
	if err != nil {
		return errors.Wrap(err, "forkchoice update transport failure")
	}

	switch result.PayloadStatus.Status {
	case eth.ExecutionValid:
		log.WithField("head", fcs.HeadBlockHash).Debug("canonicalized forkchoice")
		return nil
	case eth.ExecutionSyncing:
		log.WithField("head", fcs.HeadBlockHash).Warn("forkchoice canonicalization failed temporarily: EL is syncing")
		return ErrForkchoiceSyncing
	case eth.ExecutionInvalid:
		log.WithFields(logrus.Fields{
			"head":             fcs.HeadBlockHash,
			"validation_error": result.PayloadStatus.ValidationError,
		}).Error("forkchoice canonicalization rejected as invalid")
		return errors.Wrapf(ErrForkchoiceInvalid, "%s", result.PayloadStatus)
	default:
		return errors.Wrapf(ErrUnexpectedPayloadStatus, "status=%s", result.PayloadStatus.Status)
	}
}

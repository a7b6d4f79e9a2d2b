package buildtask

import "errors"

// Fatal errors: these propagate to the Build Task's invoker.
var (
	ErrForkchoiceUpdateFailed            = errors.New("forkchoice update with attributes failed")
	ErrMissingPayloadId                  = errors.New("forkchoice update returned no payload id")
	ErrGetPayloadFailed                  = errors.New("get payload failed")
	ErrNewPayloadFailed                  = errors.New("new payload failed")
	ErrUnexpectedPayloadStatus           = errors.New("unexpected payload status")
	ErrDepositOnlyPayloadFailed          = errors.New("deposits-only payload import failed")
	ErrDepositOnlyPayloadReattemptFailed = errors.New("deposits-only re-attempt failed")
	ErrMpscSend                          = errors.New("failed to send execution payload envelope downstream")
)

// ErrEngineSyncing is a transient failure: the caller's policy is to
// buffer the attributes and retry the Build Task later.
var ErrEngineSyncing = errors.New("engine syncing, try again later")

// ErrHoloceneInvalidFlush is not a true failure: it signals that a
// post-Holocene INVALID response was recovered from by a deposits-only
// re-attempt, and that upstream derivation should flush its buffered
// batches. Callers of Task.Execute must check for this sentinel with
// errors.Is before treating a non-nil error as fatal.
var ErrHoloceneInvalidFlush = errors.New("holocene invalid payload recovered via deposits-only re-attempt: flush required")

package enginestate

import "errors"

// ErrFinalizedAheadOfUnsafe is returned by State.CheckInvariant when the
// finalized head has somehow overtaken the unsafe head - a corrupted tower,
// fatal to the Build Task run that observes it.
var ErrFinalizedAheadOfUnsafe = errors.New("finalized head is ahead of unsafe head")

// ErrForkchoiceSyncing is returned by ForkchoiceTask.Execute when the EL
// reports SYNCING in response to the canonicalizing FCU - a transient
// failure, safe to retry later.
var ErrForkchoiceSyncing = errors.New("forkchoice update failed temporarily: EL is syncing")

// ErrForkchoiceInvalid is returned by ForkchoiceTask.Execute when the EL
// rejects the canonicalizing FCU outright - fatal to this canonicalization
// attempt.
var ErrForkchoiceInvalid = errors.New("forkchoice update rejected as invalid")

// ErrUnexpectedPayloadStatus is returned when the EL reports a payload
// status forkchoiceUpdated never documents (including ACCEPTED, whose
// handling here is conservative pending upstream protocol clarification).
var ErrUnexpectedPayloadStatus = errors.New("unexpected payload status")

package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PayloadStatusV is the status enum the EL reports from newPayload and
// forkchoiceUpdated calls.
type PayloadStatusV string

const (
	ExecutionValid   PayloadStatusV = "VALID"
	ExecutionInvalid PayloadStatusV = "INVALID"
	ExecutionSyncing PayloadStatusV = "SYNCING"
	// ExecutionAccepted is returned by newPayload for a side-chain payload
	// the EL accepted but did not process. The core's handling of this
	// status is an open question upstream; it is conservatively routed to
	// UnexpectedPayloadStatus everywhere it is observed.
	ExecutionAccepted PayloadStatusV = "ACCEPTED"
)

// PayloadStatus is the full payload-status response from newPayload or
// forkchoiceUpdated.
type PayloadStatus struct {
	Status          PayloadStatusV
	LatestValidHash *common.Hash
	ValidationError *string
}

func (s PayloadStatus) String() string {
	if s.ValidationError != nil {
		return fmt.Sprintf("%s(%s)", s.Status, *s.ValidationError)
	}
	return string(s.Status)
}

// ForkchoiceUpdatedResult is the response to a forkchoiceUpdated call.
type ForkchoiceUpdatedResult struct {
	PayloadStatus PayloadStatus
	PayloadID     *PayloadID
}

// ErrorCode is the JSON-RPC error code space the Engine API defines for
// input errors, distinct from transport-level failures.
type ErrorCode int

const (
	InvalidForkchoiceState ErrorCode = -38002
	InvalidPayloadAttrs    ErrorCode = -38003
	UnknownPayload         ErrorCode = -38001
)

// InputError is a well-formed Engine API error response (as opposed to a
// transport failure): the EL rejected the call itself, not just the
// content of a payload.
type InputError struct {
	Code ErrorCode
	Err  error
}

func (e InputError) Error() string {
	return fmt.Sprintf("engine api input error (code %d): %s", e.Code, e.Err)
}

func (e InputError) Unwrap() error {
	return e.Err
}

package engineapi

import (
	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/rollup"
)

// ForkchoiceVersion selects the engine_forkchoiceUpdated wire version for
// an attribute set with the given timestamp. Centralized here so no call
// site re-derives the fork-gated dispatch independently.
func ForkchoiceVersion(cfg *rollup.Config, timestamp uint64) eth.ExecutionPayloadVersion {
	switch {
	case cfg.IsEcotoneActive(timestamp):
		return eth.ExecutionPayloadV3
	case cfg.IsCanyonActive(timestamp):
		return eth.ExecutionPayloadV2
	default:
		return eth.ExecutionPayloadV1
	}
}

// GetPayloadVersion selects the engine_getPayload wire version for a
// payload with the given timestamp.
func GetPayloadVersion(cfg *rollup.Config, timestamp uint64) eth.ExecutionPayloadVersion {
	switch {
	case cfg.IsIsthmusActive(timestamp):
		return eth.ExecutionPayloadV4
	case cfg.IsEcotoneActive(timestamp):
		return eth.ExecutionPayloadV3
	default:
		return eth.ExecutionPayloadV2
	}
}

package engineapi

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
)

// Transport is the Engine API's JSON-RPC method family, one method per
// wire version. HTTPTransport is the implementation in this package: it
// wraps a go-ethereum rpc.Client authenticated with a golang-jwt/jwt token
// minted from the shared engine secret.
type Transport interface {
	ForkchoiceUpdatedV1(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes) (eth.ForkchoiceUpdatedResult, error)
	ForkchoiceUpdatedV2(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes) (eth.ForkchoiceUpdatedResult, error)
	ForkchoiceUpdatedV3(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes) (eth.ForkchoiceUpdatedResult, error)

	GetPayloadV2(ctx context.Context, id eth.PayloadID) (*eth.ExecutionPayloadEnvelope, error)
	GetPayloadV3(ctx context.Context, id eth.PayloadID) (*eth.ExecutionPayloadEnvelope, error)
	GetPayloadV4(ctx context.Context, id eth.PayloadID) (*eth.ExecutionPayloadEnvelope, error)

	NewPayloadV1(ctx context.Context, payload *eth.ExecutionPayload) (eth.PayloadStatus, error)
	NewPayloadV2(ctx context.Context, payload *eth.ExecutionPayload) (eth.PayloadStatus, error)
	NewPayloadV3(ctx context.Context, payload *eth.ExecutionPayload, parentBeaconBlockRoot common.Hash) (eth.PayloadStatus, error)
	NewPayloadV4(ctx context.Context, payload *eth.ExecutionPayload, parentBeaconBlockRoot common.Hash) (eth.PayloadStatus, error)
}

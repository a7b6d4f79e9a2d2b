package engineapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/golang-jwt/jwt/v4"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
)

// jwtRoundTripper stamps every outbound request with a freshly minted
// HS256 bearer token, as the Engine API's shared-secret authentication
// scheme requires.
type jwtRoundTripper struct {
	secret []byte
	next   http.RoundTripper
}

func (rt *jwtRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt: jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString(rt.secret)
	if err != nil {
		return nil, fmt.Errorf("signing engine api jwt: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	return rt.next.RoundTrip(req)
}

// HTTPTransport is a Transport backed by an HTTP JSON-RPC connection to the
// execution engine, authenticated per request by jwtRoundTripper. Wire-level
// field naming for the Engine API's JSON schema is the execution client
// integration's concern, not this core's; HTTPTransport forwards the core's
// own wire types as call arguments unchanged.
type HTTPTransport struct {
	rpc *rpc.Client
}

// DialHTTPTransport dials endpoint over HTTP, authenticating every request
// with a token signed by secret (the shared 32-byte Engine API JWT secret).
func DialHTTPTransport(ctx context.Context, endpoint string, secret []byte) (*HTTPTransport, error) {
	httpClient := &http.Client{Transport: &jwtRoundTripper{secret: secret, next: http.DefaultTransport}}
	client, err := rpc.DialHTTPWithClient(endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("dialing engine api endpoint: %w", err)
	}
	return &HTTPTransport{rpc: client}, nil
}

func (t *HTTPTransport) ForkchoiceUpdatedV1(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes) (eth.ForkchoiceUpdatedResult, error) {
	var result eth.ForkchoiceUpdatedResult
	err := t.rpc.CallContext(ctx, &result, "engine_forkchoiceUpdatedV1", fcs, attrs)
	return result, err
}

func (t *HTTPTransport) ForkchoiceUpdatedV2(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes) (eth.ForkchoiceUpdatedResult, error) {
	var result eth.ForkchoiceUpdatedResult
	err := t.rpc.CallContext(ctx, &result, "engine_forkchoiceUpdatedV2", fcs, attrs)
	return result, err
}

func (t *HTTPTransport) ForkchoiceUpdatedV3(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes) (eth.ForkchoiceUpdatedResult, error) {
	var result eth.ForkchoiceUpdatedResult
	err := t.rpc.CallContext(ctx, &result, "engine_forkchoiceUpdatedV3", fcs, attrs)
	return result, err
}

func (t *HTTPTransport) GetPayloadV2(ctx context.Context, id eth.PayloadID) (*eth.ExecutionPayloadEnvelope, error) {
	var result eth.ExecutionPayloadEnvelope
	if err := t.rpc.CallContext(ctx, &result, "engine_getPayloadV2", id); err != nil {
		return nil, err
	}
	return &result, nil
}

func (t *HTTPTransport) GetPayloadV3(ctx context.Context, id eth.PayloadID) (*eth.ExecutionPayloadEnvelope, error) {
	var result eth.ExecutionPayloadEnvelope
	if err := t.rpc.CallContext(ctx, &result, "engine_getPayloadV3", id); err != nil {
		return nil, err
	}
	return &result, nil
}

func (t *HTTPTransport) GetPayloadV4(ctx context.Context, id eth.PayloadID) (*eth.ExecutionPayloadEnvelope, error) {
	var result eth.ExecutionPayloadEnvelope
	if err := t.rpc.CallContext(ctx, &result, "engine_getPayloadV4", id); err != nil {
		return nil, err
	}
	return &result, nil
}

func (t *HTTPTransport) NewPayloadV1(ctx context.Context, payload *eth.ExecutionPayload) (eth.PayloadStatus, error) {
	var result eth.PayloadStatus
	err := t.rpc.CallContext(ctx, &result, "engine_newPayloadV1", payload)
	return result, err
}

func (t *HTTPTransport) NewPayloadV2(ctx context.Context, payload *eth.ExecutionPayload) (eth.PayloadStatus, error) {
	var result eth.PayloadStatus
	err := t.rpc.CallContext(ctx, &result, "engine_newPayloadV2", payload)
	return result, err
}

func (t *HTTPTransport) NewPayloadV3(ctx context.Context, payload *eth.ExecutionPayload, parentBeaconBlockRoot common.Hash) (eth.PayloadStatus, error) {
	var result eth.PayloadStatus
	err := t.rpc.CallContext(ctx, &result, "engine_newPayloadV3", payload, parentBeaconBlockRoot)
	return result, err
}

func (t *HTTPTransport) NewPayloadV4(ctx context.Context, payload *eth.ExecutionPayload, parentBeaconBlockRoot common.Hash) (eth.PayloadStatus, error) {
	var result eth.PayloadStatus
	err := t.rpc.CallContext(ctx, &result, "engine_newPayloadV4", payload, parentBeaconBlockRoot)
	return result, err
}

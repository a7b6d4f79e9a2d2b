// Package engineapi provides a thin, version-dispatching client over the
// Engine API: it selects the correct wire version for forkchoiceUpdated,
// getPayload, and newPayload from a rollup.Config and a timestamp, and
// forwards the call to an injected Transport. It holds no state beyond the
// transport handle and the rollup configuration.
package engineapi

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
	"github.com/prysmaticlabs/rollup-node/internal/rollup"
)

var log = logrus.WithField("prefix", "engineapi")

// Client dispatches Engine API calls to the correct wire version. It does
// not own a connection; Transport is injected so tests can substitute a
// fake and production code can substitute an HTTP/JWT-backed
// implementation.
type Client struct {
	transport Transport
	cfg       *rollup.Config
}

// NewClient builds a Client against the given rollup configuration, used
// to resolve fork-gated wire versions.
func NewClient(transport Transport, cfg *rollup.Config) *Client {
	return &Client{transport: transport, cfg: cfg}
}

// ForkchoiceUpdate issues a forkchoiceUpdated call, selecting V1/V2/V3 from
// the attributes' timestamp when attrs is non-nil, or from attrsTimestamp
// when attrs is nil (callers without attributes, i.e. the Forkchoice Task,
// pass the current head's timestamp there).
func (c *Client) ForkchoiceUpdate(ctx context.Context, fcs eth.ForkchoiceState, attrs *eth.PayloadAttributes, attrsTimestamp uint64) (eth.ForkchoiceUpdatedResult, error) {
	timestamp := attrsTimestamp
	if attrs != nil {
		timestamp = attrs.Timestamp
	}
	version := ForkchoiceVersion(c.cfg, timestamp)
	reqID := uuid.New()
	log.WithFields(logrus.Fields{
		"req_id":  reqID,
		"version": version,
		"head":    fcs.HeadBlockHash,
	}).Debug("dispatching forkchoiceUpdated")

	switch version {
	case eth.ExecutionPayloadV3:
		return c.transport.ForkchoiceUpdatedV3(ctx, fcs, attrs)
	case eth.ExecutionPayloadV2:
		return c.transport.ForkchoiceUpdatedV2(ctx, fcs, attrs)
	default:
		return c.transport.ForkchoiceUpdatedV1(ctx, fcs, attrs)
	}
}

// GetPayload fetches the execution payload addressed by id, built for a
// block with the given timestamp, selecting V2/V3/V4 by fork activation.
func (c *Client) GetPayload(ctx context.Context, id eth.PayloadID, timestamp uint64) (*eth.ExecutionPayloadEnvelope, error) {
	version := GetPayloadVersion(c.cfg, timestamp)
	reqID := uuid.New()
	log.WithFields(logrus.Fields{
		"req_id":     reqID,
		"version":    version,
		"payload_id": id,
	}).Debug("dispatching getPayload")

	switch version {
	case eth.ExecutionPayloadV4:
		return c.transport.GetPayloadV4(ctx, id)
	case eth.ExecutionPayloadV3:
		return c.transport.GetPayloadV3(ctx, id)
	default:
		return c.transport.GetPayloadV2(ctx, id)
	}
}

// NewPayload submits an execution payload for import, dispatching on the
// payload's own Version field (it must match the version it was fetched
// with), and including the parent beacon block root for V3/V4 as the
// Engine API spec requires.
func (c *Client) NewPayload(ctx context.Context, envelope *eth.ExecutionPayloadEnvelope) (eth.PayloadStatus, error) {
	payload := envelope.ExecutionPayload
	reqID := uuid.New()
	log.WithFields(logrus.Fields{
		"req_id":  reqID,
		"version": payload.Version,
		"hash":    payload.BlockHash,
	}).Debug("dispatching newPayload")

	switch payload.Version {
	case eth.ExecutionPayloadV4:
		return c.transport.NewPayloadV4(ctx, payload, parentBeaconRoot(envelope))
	case eth.ExecutionPayloadV3:
		return c.transport.NewPayloadV3(ctx, payload, parentBeaconRoot(envelope))
	case eth.ExecutionPayloadV2:
		return c.transport.NewPayloadV2(ctx, payload)
	case eth.ExecutionPayloadV1:
		return c.transport.NewPayloadV1(ctx, payload)
	default:
		return eth.PayloadStatus{}, fmt.Errorf("unsupported execution payload version: %s", payload.Version)
	}
}

func parentBeaconRoot(envelope *eth.ExecutionPayloadEnvelope) common.Hash {
	if envelope.ParentBeaconBlockRoot == nil {
		return common.Hash{}
	}
	return *envelope.ParentBeaconBlockRoot
}

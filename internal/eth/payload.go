package eth

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
)

// Data is a single opaque, RLP-encoded transaction as carried in an
// execution payload's transaction list.
type Data []byte

// Withdrawal mirrors the EL's withdrawal wire type; the core never
// inspects its fields beyond forwarding them, so only the shape is kept.
type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        common.Address
	Amount         uint64
}

// PayloadAttributes instructs the EL to build a specific block. It is the
// inner, version-agnostic attribute set; OpAttributesWithParent wraps it
// with the parent block and derivation provenance.
type PayloadAttributes struct {
	Timestamp             uint64
	PrevRandao            common.Hash
	SuggestedFeeRecipient common.Address
	Withdrawals           *[]Withdrawal
	ParentBeaconBlockRoot *common.Hash
	Transactions          []Data
	NoTxPool              bool
	GasLimit              *uint64
}

// OpAttributesWithParent is the instruction handed to a Build Task: the
// payload attributes, the parent block they build on top of, and whether
// they were produced by derivation (vs. the sequencer).
type OpAttributesWithParent struct {
	Attributes *PayloadAttributes
	Parent     L2BlockRef
	IsDerived  bool
}

// IsDepositsOnly reports whether every transaction in the attributes is a
// protocol deposit transaction (type byte 0x7E).
func (a *OpAttributesWithParent) IsDepositsOnly() bool {
	for _, tx := range a.Attributes.Transactions {
		if !isDepositTx(tx) {
			return false
		}
	}
	return true
}

// AsDepositsOnly returns a copy of the attributes retaining only the
// leading run of deposit transactions. It is idempotent: calling it on an
// already-deposits-only set of attributes returns an equivalent copy.
func (a *OpAttributesWithParent) AsDepositsOnly() *OpAttributesWithParent {
	var kept []Data
	for _, tx := range a.Attributes.Transactions {
		if !isDepositTx(tx) {
			break
		}
		kept = append(kept, tx)
	}
	innerCopy := *a.Attributes
	innerCopy.Transactions = kept
	return &OpAttributesWithParent{
		Attributes: &innerCopy,
		Parent:     a.Parent,
		IsDerived:  a.IsDerived,
	}
}

const depositTxType = 0x7E

func isDepositTx(tx Data) bool {
	return len(tx) > 0 && tx[0] == depositTxType
}

// PayloadID is the opaque 64-bit identifier the EL returns from a
// forkchoiceUpdated-with-attributes call, used to address the in-progress
// build when fetching it with getPayload.
type PayloadID [8]byte

func (id PayloadID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Uint64 interprets the payload ID as a big-endian integer, purely for
// compact logging; the Engine API treats it as an opaque byte string.
func (id PayloadID) Uint64() uint64 {
	return binary.BigEndian.Uint64(id[:])
}

// ExecutionPayloadVersion identifies which versioned wire encoding an
// execution payload was fetched/submitted with.
type ExecutionPayloadVersion int

const (
	ExecutionPayloadV1 ExecutionPayloadVersion = iota + 1
	ExecutionPayloadV2
	ExecutionPayloadV3
	ExecutionPayloadV4
)

func (v ExecutionPayloadVersion) String() string {
	switch v {
	case ExecutionPayloadV1:
		return "V1"
	case ExecutionPayloadV2:
		return "V2"
	case ExecutionPayloadV3:
		return "V3"
	case ExecutionPayloadV4:
		return "V4"
	default:
		return "unknown"
	}
}

// ExecutionPayload is the versioned block body the EL produces via
// getPayload and consumes via newPayload. Fields beyond V1 are populated
// only for the payload versions that carry them; callers should gate on
// Version rather than field presence.
type ExecutionPayload struct {
	Version       ExecutionPayloadVersion
	ParentHash    common.Hash
	FeeRecipient  common.Address
	StateRoot     common.Hash
	ReceiptsRoot  common.Hash
	LogsBloom     [256]byte
	PrevRandao    common.Hash
	BlockNumber   uint64
	GasLimit      uint64
	GasUsed       uint64
	Timestamp     uint64
	ExtraData     []byte
	BaseFeePerGas uint64
	BlockHash     common.Hash
	Transactions  []Data
	Withdrawals   *[]Withdrawal // present on V2+
	BlobGasUsed   *uint64       // present on V3+
	ExcessBlobGas *uint64       // present on V3+
}

// ExecutionPayloadEnvelope pairs a fetched/imported payload with the
// parent beacon block root required alongside newPayloadV3/V4.
type ExecutionPayloadEnvelope struct {
	ExecutionPayload      *ExecutionPayload
	ParentBeaconBlockRoot *common.Hash
}

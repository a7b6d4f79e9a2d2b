package eth

import "github.com/ethereum/go-ethereum/common"

// ForkchoiceState is the (head, safe, finalized) hash triple sent on every
// engine_forkchoiceUpdated call.
type ForkchoiceState struct {
	HeadBlockHash      common.Hash
	SafeBlockHash      common.Hash
	FinalizedBlockHash common.Hash
}

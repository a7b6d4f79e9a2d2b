// Package enginestate holds the in-memory head tower the Build and
// Forkchoice tasks mutate, and the Forkchoice Task itself.
package enginestate

import (
	"fmt"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
)

// State is the ordered tower of L2 head references, from least to most
// committed: UnsafeHead >= CrossUnsafeHead >= LocalSafeHead >= SafeHead >=
// FinalizedHead, compared by block number.
//
// State is mutated exclusively by whichever task (Build or Forkchoice)
// currently holds the *State pointer for its single sequential execution;
// it is never shared across concurrent mutators and so carries no
// synchronization of its own.
type State struct {
	unsafeHead      eth.L2BlockRef
	crossUnsafeHead eth.L2BlockRef
	localSafeHead   eth.L2BlockRef
	safeHead        eth.L2BlockRef
	finalizedHead   eth.L2BlockRef
}

// New seeds a State with every head pointing at the same starting block,
// as at node startup before any block has been built or derived.
func New(start eth.L2BlockRef) *State {
	return &State{
		unsafeHead:      start,
		crossUnsafeHead: start,
		localSafeHead:   start,
		safeHead:        start,
		finalizedHead:   start,
	}
}

func (s *State) UnsafeHead() eth.L2BlockRef      { return s.unsafeHead }
func (s *State) CrossUnsafeHead() eth.L2BlockRef { return s.crossUnsafeHead }
func (s *State) LocalSafeHead() eth.L2BlockRef   { return s.localSafeHead }
func (s *State) SafeHead() eth.L2BlockRef        { return s.safeHead }
func (s *State) FinalizedHead() eth.L2BlockRef   { return s.finalizedHead }

func (s *State) SetUnsafeHead(ref eth.L2BlockRef)      { s.unsafeHead = ref }
func (s *State) SetCrossUnsafeHead(ref eth.L2BlockRef) { s.crossUnsafeHead = ref }
func (s *State) SetLocalSafeHead(ref eth.L2BlockRef)   { s.localSafeHead = ref }
func (s *State) SetSafeHead(ref eth.L2BlockRef)        { s.safeHead = ref }
func (s *State) SetFinalizedHead(ref eth.L2BlockRef)   { s.finalizedHead = ref }

// CreateForkchoiceState snapshots (unsafe, safe, finalized) block hashes
// into the triple the Engine API's forkchoiceUpdated call expects.
func (s *State) CreateForkchoiceState() eth.ForkchoiceState {
	return eth.ForkchoiceState{
		HeadBlockHash:      s.unsafeHead.Hash,
		SafeBlockHash:      s.safeHead.Hash,
		FinalizedBlockHash: s.finalizedHead.Hash,
	}
}

// CheckInvariant enforces unsafe_head.number >= finalized_head.number,
// checked at entry to every Build Task run. A violation is a fatal core
// error: it means the tower has been corrupted by a prior bug, not a
// recoverable external condition.
func (s *State) CheckInvariant() error {
	if s.unsafeHead.Number < s.finalizedHead.Number {
		return fmt.Errorf("%w: unsafe=%d finalized=%d", ErrFinalizedAheadOfUnsafe, s.unsafeHead.Number, s.finalizedHead.Number)
	}
	return nil
}

// Package rollup holds the rollup's static configuration: fork activation
// predicates and the genesis descriptor used to lift execution payloads
// into L2 block references.
package rollup

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/prysmaticlabs/rollup-node/internal/eth"
)

// SystemConfig is the subset of L1-governed, batcher-facing configuration
// that derivation needs when resetting or activating: who may post
// batches, and the current gas accounting parameters. The core treats it
// as an opaque value round-tripped through signals; it never inspects the
// fields itself.
type SystemConfig struct {
	BatcherAddr common.Address
	Overhead    [32]byte
	Scalar      [32]byte
	GasLimit    uint64
}

// Genesis anchors the rollup's L2 chain to its L1 deployment block and the
// very first L2 block.
type Genesis struct {
	L1     eth.BlockID
	L2     eth.BlockID
	L2Time uint64
}

// Config carries the timestamp-keyed hard-fork activation schedule and the
// genesis descriptor. Every predicate is nil-safe: an unset fork time is
// treated as "not yet active" (never active), matching the convention used
// throughout the op-node family for optional future forks.
type Config struct {
	Genesis Genesis

	CanyonTime  *uint64
	EcotoneTime *uint64
	IsthmusTime *uint64
	HoloceneTime *uint64
	InteropTime *uint64
}

func activeAt(forkTime *uint64, t uint64) bool {
	return forkTime != nil && t >= *forkTime
}

func (c *Config) IsCanyonActive(t uint64) bool   { return activeAt(c.CanyonTime, t) }
func (c *Config) IsEcotoneActive(t uint64) bool  { return activeAt(c.EcotoneTime, t) }
func (c *Config) IsIsthmusActive(t uint64) bool  { return activeAt(c.IsthmusTime, t) }
func (c *Config) IsHoloceneActive(t uint64) bool { return activeAt(c.HoloceneTime, t) }
func (c *Config) IsInteropActive(t uint64) bool  { return activeAt(c.InteropTime, t) }

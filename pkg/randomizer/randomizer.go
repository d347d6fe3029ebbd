// Package randomizer implements seed-based address randomization: a mask
// derived once from a seed is XORed into every address the pipeline
// touches, so the same seed always anonymizes a given capture the same way
// (reproducible runs), without claiming any cryptographic strength.
package randomizer

import (
	"math/rand"

	"github.com/netrecast/tcpedit/pkg/common"
)

// Randomizer holds the per-session XOR masks derived from a seed.
type Randomizer struct {
	maskV4 [4]byte
	maskV6 [16]byte
}

// New derives a Randomizer's masks from seed. The same seed always
// produces the same masks.
func New(seed uint32) *Randomizer {
	r := rand.New(rand.NewSource(int64(seed)))
	var rnd Randomizer
	r.Read(rnd.maskV4[:])
	r.Read(rnd.maskV6[:])
	return &rnd
}

// RandomizeIPv4 XORs addr with the IPv4 mask.
func (r *Randomizer) RandomizeIPv4(addr common.IPv4Address) common.IPv4Address {
	var out common.IPv4Address
	for i := range addr {
		out[i] = addr[i] ^ r.maskV4[i]
	}
	return out
}

// RandomizeIPv6 XORs addr with the IPv6 mask.
func (r *Randomizer) RandomizeIPv6(addr common.IPv6Address) common.IPv6Address {
	var out common.IPv6Address
	for i := range addr {
		out[i] = addr[i] ^ r.maskV6[i]
	}
	return out
}

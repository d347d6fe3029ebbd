// Package addrrewrite implements CIDR-to-CIDR address rewriting: an
// address matching a "from" network is remapped onto a "to" network,
// preserving its host bits, per direction.
package addrrewrite

import (
	"fmt"
	"net"

	"github.com/netrecast/tcpedit/pkg/common"
)

// Rule maps every address in From onto the corresponding address in To,
// preserving host bits relative to From's mask.
type Rule struct {
	From *net.IPNet
	To   *net.IPNet
}

// Table holds an ordered, per-direction list of rewrite rules. Rules are
// evaluated in registration order; the first matching rule wins.
type Table struct {
	rules map[common.Direction][]Rule
}

// NewTable returns an empty address-rewrite table.
func NewTable() *Table {
	return &Table{rules: make(map[common.Direction][]Rule)}
}

// AddRule appends a rule for the given direction. From and To must be the
// same IP family and the same prefix length, so every host bit in From has
// a corresponding bit in To.
func (t *Table) AddRule(dir common.Direction, from, to *net.IPNet) error {
	fromOnes, fromBits := from.Mask.Size()
	toOnes, toBits := to.Mask.Size()
	if fromBits != toBits {
		return fmt.Errorf("addrrewrite: from %s and to %s are different address families", from, to)
	}
	if fromOnes != toOnes {
		return fmt.Errorf("addrrewrite: from %s and to %s have different prefix lengths", from, to)
	}
	t.rules[dir] = append(t.rules[dir], Rule{From: from, To: to})
	return nil
}

// rewrite applies the first matching rule for dir to addr, returning the
// remapped address and whether a rule matched.
func rewrite(rules []Rule, addr net.IP) (net.IP, bool) {
	for _, rule := range rules {
		if !rule.From.Contains(addr) {
			continue
		}
		toIP := rule.To.IP
		mask := rule.From.Mask
		out := make(net.IP, len(toIP))
		for i := range out {
			out[i] = toIP[i] | (addr[i] &^ mask[i])
		}
		return out, true
	}
	return nil, false
}

// RewriteIPv4 rewrites addr per the rules registered for dir, if any match.
func (t *Table) RewriteIPv4(dir common.Direction, addr common.IPv4Address) (common.IPv4Address, bool) {
	out, ok := rewrite(t.rules[dir], net.IP(addr[:]).To4())
	if !ok {
		return addr, false
	}
	var result common.IPv4Address
	copy(result[:], out.To4())
	return result, true
}

// RewriteIPv6 rewrites addr per the rules registered for dir, if any match.
func (t *Table) RewriteIPv6(dir common.Direction, addr common.IPv6Address) (common.IPv6Address, bool) {
	out, ok := rewrite(t.rules[dir], net.IP(addr[:]))
	if !ok {
		return addr, false
	}
	var result common.IPv6Address
	copy(result[:], out.To16())
	return result, true
}

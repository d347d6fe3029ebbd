// Package optparse turns the front-end option strings (tos=N, ttl=set:N,
// portmap=F:T,..., etc.) into a tcpedit.Config. It is the sole place in
// this module that understands the textual option syntax; the core
// tcpedit package never parses strings itself.
package optparse

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/netrecast/tcpedit/pkg/addrrewrite"
	"github.com/netrecast/tcpedit/pkg/common"
	"github.com/netrecast/tcpedit/pkg/dlt"
	"github.com/netrecast/tcpedit/pkg/lengthadjust"
	"github.com/netrecast/tcpedit/pkg/portmap"
	"github.com/netrecast/tcpedit/pkg/tcpedit"
	"github.com/netrecast/tcpedit/pkg/ttlrule"
)

// Parse turns a list of "key=value" (or bare "key") option strings into a
// tcpedit.Config. Unrecognized options are a hard error: the original
// front-end's policy of silently ignoring typos has no place in a rewrite
// that's trying to fail loudly at configuration time rather than at the
// first mis-edited packet.
func Parse(options []string) (tcpedit.Config, error) {
	cfg := tcpedit.Config{ChecksumPolicy: tcpedit.ChecksumAuto}

	for _, opt := range options {
		key, value, hasValue := strings.Cut(opt, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "tos":
			err = parseUint8Ptr(value, &cfg.TOS)
		case "tclass":
			err = parseUint8Ptr(value, &cfg.TrafficClass)
		case "flowlabel":
			err = parseFlowLabel(value, &cfg.FlowLabel)
		case "ttl":
			cfg.TTLRule, err = parseTTLRule(value)
		case "portmap":
			cfg.PortMap, err = parsePortMap(value)
		case "seed":
			err = parseUint32Ptr(value, &cfg.Seed)
		case "mtu":
			cfg.MTU, err = parseInt(value)
		case "fixlen":
			cfg.LengthPolicy, err = parseLengthPolicy(value)
		case "fixcsum":
			cfg.ChecksumPolicy, err = parseChecksumPolicy(value)
		case "efcs":
			if hasValue {
				err = fmt.Errorf("efcs takes no value")
			}
			cfg.StripFCS = true
		case "dlt_out":
			var n int
			n, err = parseInt(value)
			cfg.OutputLinkType = dlt.LinkType(n)
		case "addrmap":
			cfg.AddrMap, err = parseAddrMap(value)
		default:
			err = fmt.Errorf("unrecognized option %q", key)
		}
		if err != nil {
			return tcpedit.Config{}, fmt.Errorf("optparse: option %q: %w", opt, err)
		}
	}
	return cfg, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func parseUint8Ptr(s string, dst **uint8) error {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return err
	}
	v := uint8(n)
	*dst = &v
	return nil
}

func parseUint32Ptr(s string, dst **uint32) error {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	v := uint32(n)
	*dst = &v
	return nil
}

func parseFlowLabel(s string, dst **uint32) error {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	v := uint32(n) & 0xFFFFF
	*dst = &v
	return nil
}

func parseTTLRule(s string) (*ttlrule.Rule, error) {
	mode, value, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("ttl option must be mode:value (set|add|sub)")
	}
	n, err := strconv.ParseUint(value, 0, 8)
	if err != nil {
		return nil, err
	}
	var m ttlrule.Mode
	switch mode {
	case "set":
		m = ttlrule.ModeSet
	case "add":
		m = ttlrule.ModeAdd
	case "sub":
		m = ttlrule.ModeSub
	default:
		return nil, fmt.Errorf("unknown ttl mode %q", mode)
	}
	return &ttlrule.Rule{Mode: m, Value: uint8(n)}, nil
}

func parsePortMap(s string) (portmap.Table, error) {
	var table portmap.Table
	for _, pair := range strings.Split(s, ",") {
		from, to, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("portmap entry %q must be from:to", pair)
		}
		f, err := strconv.ParseUint(from, 0, 16)
		if err != nil {
			return nil, err
		}
		t, err := strconv.ParseUint(to, 0, 16)
		if err != nil {
			return nil, err
		}
		table.Add(uint16(f), uint16(t))
	}
	return table, nil
}

func parseLengthPolicy(s string) (lengthadjust.Policy, error) {
	switch s {
	case "pad":
		return lengthadjust.PolicyPad, nil
	case "trunc":
		return lengthadjust.PolicyTruncate, nil
	default:
		return lengthadjust.PolicyNone, fmt.Errorf("unknown length policy %q", s)
	}
}

func parseChecksumPolicy(s string) (tcpedit.ChecksumPolicy, error) {
	switch s {
	case "on":
		return tcpedit.ChecksumForcedOn, nil
	case "off":
		return tcpedit.ChecksumDisabled, nil
	case "auto":
		return tcpedit.ChecksumAuto, nil
	default:
		return tcpedit.ChecksumAuto, fmt.Errorf("unknown checksum policy %q", s)
	}
}

// parseAddrMap parses "client:FROM=TO,server:FROM=TO,..." where FROM/TO
// are CIDR blocks of the same family and prefix length. Each entry's
// direction selects which leg of a flow the rewrite fires on. "=" separates
// the two CIDRs, since CIDR notation already uses "/" for the prefix
// length.
func parseAddrMap(s string) (*addrrewrite.Table, error) {
	table := addrrewrite.NewTable()
	for _, entry := range strings.Split(s, ",") {
		dirPart, cidrPart, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("addrmap entry %q must be direction:from=to", entry)
		}
		var dir common.Direction
		switch dirPart {
		case "client":
			dir = common.DirClientToServer
		case "server":
			dir = common.DirServerToClient
		default:
			return nil, fmt.Errorf("unknown addrmap direction %q", dirPart)
		}
		fromStr, toStr, ok := strings.Cut(cidrPart, "=")
		if !ok {
			return nil, fmt.Errorf("addrmap entry %q must be direction:from=to", entry)
		}
		_, from, err := net.ParseCIDR(fromStr)
		if err != nil {
			return nil, fmt.Errorf("parsing from-CIDR %q: %w", fromStr, err)
		}
		_, to, err := net.ParseCIDR(toStr)
		if err != nil {
			return nil, fmt.Errorf("parsing to-CIDR %q: %w", toStr, err)
		}
		if err := table.AddRule(dir, from, to); err != nil {
			return nil, err
		}
	}
	return table, nil
}

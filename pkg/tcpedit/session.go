package tcpedit

import (
	"fmt"

	"github.com/netrecast/tcpedit/pkg/addrrewrite"
	"github.com/netrecast/tcpedit/pkg/dlt"
	"github.com/netrecast/tcpedit/pkg/lengthadjust"
	"github.com/netrecast/tcpedit/pkg/portmap"
	"github.com/netrecast/tcpedit/pkg/randomizer"
	"github.com/netrecast/tcpedit/pkg/ttlrule"
)

// ChecksumPolicy selects when the checksum stage runs.
type ChecksumPolicy int

const (
	// ChecksumAuto recomputes checksums only if an earlier stage changed
	// something that could invalidate them.
	ChecksumAuto ChecksumPolicy = iota
	// ChecksumForcedOn always recomputes checksums, even for an otherwise
	// untouched packet.
	ChecksumForcedOn
	// ChecksumDisabled never recomputes checksums, even if earlier stages
	// changed fields that are covered by one.
	ChecksumDisabled
)

// Config is the immutable, front-end-produced configuration for a Session.
// It is read-only once passed to NewSession; building it is out of scope
// for this package (see internal/optparse).
type Config struct {
	// InputLinkType and OutputLinkType select the decoder and encoder
	// plugins. They may differ to translate between link types (e.g. raw
	// IP captures replayed as Ethernet).
	InputLinkType  dlt.LinkType
	OutputLinkType dlt.LinkType

	// MTU bounds truncate-to-mtu length adjustment.
	MTU int

	TOS          *uint8
	TrafficClass *uint8
	FlowLabel    *uint32
	TTLRule      *ttlrule.Rule

	PortMap portmap.Table
	AddrMap *addrrewrite.Table

	LengthPolicy   lengthadjust.Policy
	ChecksumPolicy ChecksumPolicy

	StripFCS bool

	// Seed enables address randomization when non-nil.
	Seed *uint32
}

// Session is one editing run: a Config plus the mutable runtime state the
// pipeline accumulates as it processes packets. A Session is not safe for
// concurrent use -- callers needing parallelism construct one Session per
// goroutine, each over its own Registry lookup.
type Session struct {
	cfg Config

	decoder dlt.Plugin
	encoder dlt.Plugin

	randomizer *randomizer.Randomizer

	validated bool

	packetsSeen   uint64
	packetsEdited uint64
	totalBytes    uint64

	lastError   *Error
	lastWarning string
}

// NewSession builds a Session from cfg and registry, resolving the input
// and output DLT plugins. The session is not usable until Validate
// succeeds.
func NewSession(cfg Config, registry *dlt.Registry) (*Session, error) {
	decoder, err := registry.Lookup(cfg.InputLinkType)
	if err != nil {
		return nil, fmt.Errorf("tcpedit: resolving input link type: %w", err)
	}
	outputLT := cfg.OutputLinkType
	if outputLT == 0 {
		outputLT = cfg.InputLinkType
	}
	encoder, err := registry.Lookup(outputLT)
	if err != nil {
		return nil, fmt.Errorf("tcpedit: resolving output link type: %w", err)
	}
	if !encoder.Capabilities().Has(dlt.CapEncode) {
		return nil, fmt.Errorf("tcpedit: output link type %s has no encoder", outputLT)
	}

	s := &Session{cfg: cfg, decoder: decoder, encoder: encoder}
	if cfg.Seed != nil {
		s.randomizer = randomizer.New(*cfg.Seed)
	}
	return s, nil
}

// Validate marks the session ready for editing. The original design's
// validate step was empty but mandatory; this rewrite keeps the barrier so
// future rules (e.g. confirming the decoder/encoder pair can be realized
// together) have a home, and so that editing an unvalidated session remains
// a caught programmer error rather than a silent no-op.
func (s *Session) Validate() error {
	s.validated = true
	return nil
}

// Close releases the session. There are presently no resources to release
// -- the DLT plugins and config tables are owned by the caller -- but
// Close exists so session lifetime is symmetric and future resource
// acquisition (e.g. an aligned-access scratch buffer) has a release point.
func (s *Session) Close() {}

// Error returns the rendered text of the most recently latched error, or
// the empty string if none has occurred.
func (s *Session) Error() string {
	if s.lastError == nil {
		return ""
	}
	return s.lastError.Error()
}

// Warning returns the most recently latched warning, or the empty string.
func (s *Session) Warning() string {
	return s.lastWarning
}

// PacketsSeen returns the number of packets passed to Edit.
func (s *Session) PacketsSeen() uint64 { return s.packetsSeen }

// PacketsEdited returns the number of packets Edit returned as changed.
func (s *Session) PacketsEdited() uint64 { return s.packetsEdited }

// TotalBytes returns the sum of captured lengths of the packets Edit ran to
// completion; calls that returned ResultError or ResultSoftError add nothing.
func (s *Session) TotalBytes() uint64 { return s.totalBytes }

func (s *Session) latchError(err *Error) {
	s.lastError = err
}

func (s *Session) latchWarning(msg string) {
	s.lastWarning = msg
}

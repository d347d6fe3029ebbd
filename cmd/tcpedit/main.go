// Command tcpedit rewrites link/network/transport-layer fields of a pcap
// capture in place, driving the pkg/tcpedit pipeline over pkg/dlt plugins.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netrecast/tcpedit/internal/capture"
	"github.com/netrecast/tcpedit/internal/optparse"
	"github.com/netrecast/tcpedit/pkg/common"
	"github.com/netrecast/tcpedit/pkg/dlt"
	"github.com/netrecast/tcpedit/pkg/tcpedit"
)

var (
	inPath    string
	outPath   string
	editOpts  []string
	direction string
	verbose   bool

	log = logrus.New()
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tcpedit",
		Short: "Rewrite packet headers in a capture file",
		Long: `tcpedit reads a pcap capture, runs each packet through the editing
pipeline (counters, FCS strip, link-layer rewrite, IPv4/IPv6 field edits,
length fixup, address rewrite and randomization, checksum repair), and
writes the result to a second capture.`,
		SilenceUsage: true,
		RunE:         runEdit,
	}

	cmd.Flags().StringVarP(&inPath, "in", "i", "", "input pcap file (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output pcap file (required)")
	cmd.Flags().StringArrayVarP(&editOpts, "option", "O", nil, "editing option, key=value (repeatable); see optparse")
	cmd.Flags().StringVar(&direction, "direction", "client", "flow direction to assume for every packet: client or server")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")

	return cmd
}

func runEdit(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	dir, err := parseDirection(direction)
	if err != nil {
		return err
	}

	cfg, err := optparse.Parse(editOpts)
	if err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	reader, err := capture.NewReader(in, capture.DefaultHeadroom)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	cfg.InputLinkType = reader.LinkType()
	if cfg.OutputLinkType == 0 {
		cfg.OutputLinkType = cfg.InputLinkType
	}

	registry := dlt.NewDefaultRegistry()
	session, err := tcpedit.NewSession(cfg, registry)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validating session: %w", err)
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer outFile.Close()

	writer, err := capture.NewWriter(outFile, cfg.OutputLinkType, 65535)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	log.WithFields(logrus.Fields{
		"in":       inPath,
		"out":      outPath,
		"inputDLT": cfg.InputLinkType,
	}).Info("starting edit")

	var written, dropped int
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading packet: %w", err)
		}

		buf := common.NewPacketBufferWithHeadroom(rec.Data[:rec.CapLen], capture.DefaultHeadroom)
		packet := &tcpedit.PacketRecord{WireLength: rec.WireLen, Buffer: buf}
		result, _ := session.Edit(packet, dir)

		switch result {
		case tcpedit.ResultError:
			return fmt.Errorf("editing packet %d: %s", session.PacketsSeen(), session.Error())
		case tcpedit.ResultSoftError:
			log.WithField("packet", session.PacketsSeen()).Warn(session.Error())
			dropped++
			continue
		case tcpedit.ResultWarn:
			log.WithField("packet", session.PacketsSeen()).Warn(session.Warning())
		}

		out := &capture.Record{
			Timestamp: rec.Timestamp,
			CapLen:    buf.Len(),
			WireLen:   packet.WireLength,
			Data:      buf.Bytes(),
		}
		if err := writer.Write(out); err != nil {
			return fmt.Errorf("writing packet %d: %w", session.PacketsSeen(), err)
		}
		written++
	}

	log.WithFields(logrus.Fields{
		"written": written,
		"dropped": dropped,
		"edited":  session.PacketsEdited(),
		"bytes":   session.TotalBytes(),
	}).Info("edit complete")

	return nil
}

func parseDirection(s string) (common.Direction, error) {
	switch s {
	case "client":
		return common.DirClientToServer, nil
	case "server":
		return common.DirServerToClient, nil
	default:
		return 0, fmt.Errorf("unknown direction %q, want client or server", s)
	}
}

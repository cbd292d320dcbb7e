package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sarchlab/smmu-sim/iommu"
)

// streamRow configures a StreamConfig. CSV shape:
// stream,<id>,<valid 0/1>,<s1Enabled 0/1>,<s2Enabled 0/1>
type streamRow struct {
	id        uint64
	valid     bool
	s1Enabled bool
	s2Enabled bool
}

// contextRow configures a ContextConfig. CSV shape:
// context,<streamID>,<asid>,<tableBaseHex>,<granuleBits>,<ipsBits>
type contextRow struct {
	streamID    uint64
	asid        uint64
	tableBase   uint64
	granuleBits int
	ipsBits     int
}

// translateRow drives one Orchestrator.Translate call. CSV shape:
// translate,<vaHex>,<streamID>,<asid>,<vmid>
type translateRow struct {
	va       uint64
	streamID uint64
	asid     uint64
	vmid     uint64
}

type parsedTrace struct {
	streams    []streamRow
	contexts   []contextRow
	translates []translateRow
}

func parseTraceFile(path string) (parsedTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return parsedTrace{}, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1 // row kinds have different field counts

	var trace parsedTrace

	rows, err := r.ReadAll()
	if err != nil {
		return parsedTrace{}, fmt.Errorf("parse trace file: %w", err)
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}

		switch row[0] {
		case "stream":
			sr, err := parseStreamRow(row)
			if err != nil {
				return parsedTrace{}, fmt.Errorf("line %d: %w", i+1, err)
			}
			trace.streams = append(trace.streams, sr)
		case "context":
			cr, err := parseContextRow(row)
			if err != nil {
				return parsedTrace{}, fmt.Errorf("line %d: %w", i+1, err)
			}
			trace.contexts = append(trace.contexts, cr)
		case "translate":
			tr, err := parseTranslateRow(row)
			if err != nil {
				return parsedTrace{}, fmt.Errorf("line %d: %w", i+1, err)
			}
			trace.translates = append(trace.translates, tr)
		default:
			return parsedTrace{}, fmt.Errorf("line %d: unknown row kind %q", i+1, row[0])
		}
	}

	return trace, nil
}

func parseStreamRow(row []string) (streamRow, error) {
	if len(row) != 5 {
		return streamRow{}, fmt.Errorf("stream row wants 5 fields, got %d", len(row))
	}

	id, err := strconv.ParseUint(row[1], 10, 32)
	if err != nil {
		return streamRow{}, err
	}

	return streamRow{
		id:        id,
		valid:     row[2] == "1",
		s1Enabled: row[3] == "1",
		s2Enabled: row[4] == "1",
	}, nil
}

func parseContextRow(row []string) (contextRow, error) {
	if len(row) != 6 {
		return contextRow{}, fmt.Errorf("context row wants 6 fields, got %d", len(row))
	}

	streamID, err := strconv.ParseUint(row[1], 10, 32)
	if err != nil {
		return contextRow{}, err
	}

	asid, err := strconv.ParseUint(row[2], 10, 16)
	if err != nil {
		return contextRow{}, err
	}

	tableBase, err := strconv.ParseUint(row[3], 0, 64)
	if err != nil {
		return contextRow{}, err
	}

	granuleBits, err := strconv.Atoi(row[4])
	if err != nil {
		return contextRow{}, err
	}

	ipsBits, err := strconv.Atoi(row[5])
	if err != nil {
		return contextRow{}, err
	}

	return contextRow{
		streamID:    streamID,
		asid:        asid,
		tableBase:   tableBase,
		granuleBits: granuleBits,
		ipsBits:     ipsBits,
	}, nil
}

func parseTranslateRow(row []string) (translateRow, error) {
	if len(row) != 5 {
		return translateRow{}, fmt.Errorf("translate row wants 5 fields, got %d", len(row))
	}

	va, err := strconv.ParseUint(row[1], 0, 64)
	if err != nil {
		return translateRow{}, err
	}

	streamID, err := strconv.ParseUint(row[2], 10, 32)
	if err != nil {
		return translateRow{}, err
	}

	asid, err := strconv.ParseUint(row[3], 10, 16)
	if err != nil {
		return translateRow{}, err
	}

	vmid, err := strconv.ParseUint(row[4], 10, 16)
	if err != nil {
		return translateRow{}, err
	}

	return translateRow{va: va, streamID: streamID, asid: asid, vmid: vmid}, nil
}

// applyConfig pushes every stream/context row in trace into o.
func applyConfig(o *iommu.Orchestrator, trace parsedTrace) {
	for _, s := range trace.streams {
		o.ConfigureStream(iommu.StreamID(s.id), iommu.StreamConfig{
			Valid:     s.valid,
			S1Enabled: s.s1Enabled,
			S2Enabled: s.s2Enabled,
		})
	}

	for _, c := range trace.contexts {
		o.ConfigureContext(iommu.StreamID(c.streamID), iommu.ASID(c.asid), iommu.ContextConfig{
			Valid:       true,
			TableBase:   iommu.PhysicalAddress(c.tableBase),
			ASID:        iommu.ASID(c.asid),
			GranuleBits: c.granuleBits,
			IPSBits:     c.ipsBits,
		})
	}
}

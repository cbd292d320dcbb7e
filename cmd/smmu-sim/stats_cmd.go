package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/smmu-sim/iommu"
)

var statsCmd = &cobra.Command{
	Use:   "stats <trace.csv>",
	Short: "Run a trace file end to end and print the final statistics.",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		trace, err := parseTraceFile(args[0])
		if err != nil {
			log.Fatalf("stats: %v", err)
		}

		o := newOrchestrator()
		applyConfig(o, trace)

		for _, t := range trace.translates {
			o.Translate(
				iommu.VirtualAddress(t.va),
				iommu.StreamID(t.streamID),
				iommu.ASID(t.asid),
				iommu.VMID(t.vmid),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(o.Statistics()); err != nil {
			log.Fatalf("stats: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

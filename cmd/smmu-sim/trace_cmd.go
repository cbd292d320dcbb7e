package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/smmu-sim/iommu"
)

var traceCmd = &cobra.Command{
	Use:   "trace <trace.csv>",
	Short: "Replay a trace file's translation requests and print each result.",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		trace, err := parseTraceFile(args[0])
		if err != nil {
			log.Fatalf("trace: %v", err)
		}

		o := newOrchestrator()
		applyConfig(o, trace)

		enc := json.NewEncoder(os.Stdout)

		for _, t := range trace.translates {
			result := o.Translate(
				iommu.VirtualAddress(t.va),
				iommu.StreamID(t.streamID),
				iommu.ASID(t.asid),
				iommu.VMID(t.vmid),
			)

			if err := enc.Encode(result); err != nil {
				log.Fatalf("trace: %v", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

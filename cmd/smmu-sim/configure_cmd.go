package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/smmu-sim/iommu"
)

var configureCmd = &cobra.Command{
	Use:   "configure <trace.csv>",
	Short: "Apply a trace file's stream/context rows and print the resulting configuration.",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		trace, err := parseTraceFile(args[0])
		if err != nil {
			log.Fatalf("configure: %v", err)
		}

		o := newOrchestrator()
		applyConfig(o, trace)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		for _, s := range trace.streams {
			fmt.Fprintf(os.Stdout, "stream %d:\n", s.id)
			if err := enc.Encode(o.GetStream(iommu.StreamID(s.id))); err != nil {
				log.Fatalf("configure: %v", err)
			}
		}

		for _, c := range trace.contexts {
			fmt.Fprintf(os.Stdout, "context (stream %d, asid %d):\n", c.streamID, c.asid)
			ctx := o.GetContext(iommu.StreamID(c.streamID), iommu.ASID(c.asid))
			if err := enc.Encode(ctx); err != nil {
				log.Fatalf("configure: %v", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

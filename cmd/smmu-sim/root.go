// Package main is the command-line entry point for the SMMU translation
// model: configure streams/contexts, drive a CSV trace of translation
// requests, and print resulting statistics. It consumes only the
// iommu.Orchestrator's public operations, grounded on akita/cmd/root.go's
// cobra root command shape.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/smmu-sim/iommu"
)

var rootCmd = &cobra.Command{
	Use:   "smmu-sim",
	Short: "smmu-sim drives an SMMUv3-style IOMMU translation model from a CSV trace.",
	Long: "smmu-sim drives an SMMUv3-style IOMMU translation model from a CSV trace.\n" +
		"It loads stream/context configuration and translation requests from one\n" +
		"file and either shows the resulting configuration, replays the\n" +
		"translations, or prints the final statistics.",
}

func main() {
	// A missing .env is not an error: defaults apply.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newOrchestrator() *iommu.Orchestrator {
	b := iommu.NewBuilder().WithMemory(iommu.NewSimpleMemory(0))

	if v, err := envInt("SMMU_TLB_CAPACITY"); err == nil {
		b = b.WithTLBCapacity(v)
	}
	if v, err := envInt("SMMU_COMMAND_QUEUE_DEPTH"); err == nil {
		b = b.WithCommandQueueDepth(v)
	}
	if v, err := envInt("SMMU_EVENT_QUEUE_DEPTH"); err == nil {
		b = b.WithEventQueueDepth(v)
	}

	o := b.Build()
	o.Enable()

	return o
}

func envInt(name string) (int, error) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, fmt.Errorf("%s not set", name)
	}

	var v int
	_, err := fmt.Sscanf(raw, "%d", &v)
	return v, err
}

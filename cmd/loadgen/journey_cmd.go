package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mite-go/loadgen/internal/scenario"
)

var journeyCmd = &cobra.Command{
	Use:   "journey",
	Short: "Run a single journey in one process, without a separate controller/runner",
}

var journeyTestFlags struct {
	volume int
}

var journeyTestCmd = &cobra.Command{
	Use:   "test <journey_spec> [<datapool_spec>]",
	Short: "Run one registered journey at a constant concurrency against an optional data pool",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runJourneyTest,
}

func init() {
	journeyTestCmd.Flags().IntVar(&journeyTestFlags.volume, "volume", 1, "constant number of concurrently in-flight journeys")
	journeyCmd.AddCommand(journeyTestCmd)
}

func runJourneyTest(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	spec := &scenario.FileSpec{
		Name:    args[0],
		Journey: args[0],
		Volume:  scenario.VolumeSpec{Kind: "constant", N: journeyTestFlags.volume},
	}
	if len(args) == 2 {
		spec.Pool = parseDataPoolSpec(args[1])
	}
	spec.SetDefaults()
	if err := spec.Validate(); err != nil {
		return err
	}

	return runInProcess(cmd, cfg, []*scenario.FileSpec{spec})
}

// parseDataPoolSpec parses the CLI's "kind:arg1,arg2,..." shorthand for a
// data pool, the same string-args shape a scenario file's pool block
// carries.
func parseDataPoolSpec(spec string) *scenario.PoolSpec {
	kind, rest, found := strings.Cut(spec, ":")
	if !found {
		return &scenario.PoolSpec{Kind: kind}
	}
	return &scenario.PoolSpec{Kind: kind, Args: strings.Split(rest, ",")}
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/l1jgo/ecsrt/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the schema and every system manifest",
	Long: `Build the world and register every system without running a tick.
Prints the registered types and any pair of same-phase systems whose
manifests conflict. Exits non-zero if a manifest is rejected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkWorld(cmd.OutOrStdout(), cfg, logger)
	},
}

func checkWorld(out io.Writer, cfg *config.Config, log *zap.Logger) error {
	rt, err := newRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.close()

	reg := rt.world.Registry()
	fmt.Fprintf(out, "schema %s: %d types\n", cfg.World.Schema, reg.Len())
	for _, info := range reg.Types() {
		kind := "resource"
		if info.Storage != "" {
			kind = "component/" + string(info.Storage)
		}
		fmt.Fprintf(out, "  %-12s %-16s %s\n", info.Name, kind, info.Type)
	}
	fmt.Fprintf(out, "%d systems registered\n", rt.runner.Len())

	conflicts := rt.runner.Conflicts()
	if len(conflicts) == 0 {
		fmt.Fprintln(out, "no conflicts")
		return nil
	}
	for _, c := range conflicts {
		fmt.Fprintf(out, "conflict: %s\n", c)
	}
	return nil
}

package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xtding233/defuse-backend/internal/game"
)

func newValidateCmd(g *globalOpts) *cobra.Command {
	var (
		all   bool
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Resolve and validate scenario configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := g.loader()
			out := cmd.OutOrStdout()
			names := []string{g.scenario}
			if all {
				list, err := loader.Scenarios()
				if err != nil {
					return err
				}
				names = append([]string{"default"}, list...)
			}
			err := validateScenarios(out, loader, names)
			if !watch {
				return err
			}

			log := g.logger()
			w, werr := game.NewWatcher(loader.Paths().ScenarioDir(), game.DefaultDebounce, func([]string) {
				loader.Invalidate()
				_ = validateScenarios(out, loader, names)
			}, log)
			if werr != nil {
				return werr
			}
			defer w.Close()
			logErr(log, err)
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "validate every scenario in the config dir")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-validate whenever a scenario file changes")
	return cmd
}

func validateScenarios(out io.Writer, loader *game.Loader, names []string) error {
	var failed int
	for _, name := range names {
		_, p, err := loader.Resolve(name, game.Overrides{})
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (version %q, %.0fs, %d lids)\n", name, p.Version, p.Countdown.Total, len(p.Lids))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios invalid", failed, len(names))
	}
	return nil
}

func logErr(log zerolog.Logger, err error) {
	if err != nil {
		log.Warn().Err(err).Msg("initial validation failed; watching for fixes")
	}
}

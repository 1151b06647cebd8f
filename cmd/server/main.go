package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xtding233/defuse-backend/internal/bridge"
	"github.com/xtding233/defuse-backend/internal/game"
	"github.com/xtding233/defuse-backend/internal/httpapi"
	"github.com/xtding233/defuse-backend/internal/logging"
)

type globalOpts struct {
	configDir string
	scenario  string
	logLevel  string
	pretty    bool
}

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:           "defuse",
		Short:         "Bomb defusal simulation core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configDir, "config-dir", envOr("DEFUSE_CONFIG_DIR", "configs"), "directory holding scenarios/")
	root.PersistentFlags().StringVar(&g.scenario, "scenario", envOr("DEFUSE_SCENARIO", "default"), "scenario name layered over default")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", envOr("DEFUSE_LOG_LEVEL", "info"), "trace, debug, info, warn or error")
	root.PersistentFlags().BoolVar(&g.pretty, "pretty", false, "human readable logs")

	root.AddCommand(
		newServeCmd(g),
		newSimulateCmd(g),
		newValidateCmd(g),
		newSendCmd(),
	)
	return root
}

func (g *globalOpts) logger() zerolog.Logger {
	return logging.New(logging.Options{Level: g.logLevel, Pretty: g.pretty})
}

func (g *globalOpts) loader() *game.Loader {
	return game.NewLoader(g.configDir)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func grpcAddr() string { return envOr("DEFUSE_GRPC_ADDR", bridge.DefaultAddr) }
func httpAddr() string { return envOr("DEFUSE_HTTP_ADDR", httpapi.DefaultAddr) }

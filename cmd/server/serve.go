package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xtding233/defuse-backend/internal/bomb"
	"github.com/xtding233/defuse-backend/internal/bridge"
	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/game"
	"github.com/xtding233/defuse-backend/internal/httpapi"
	"github.com/xtding233/defuse-backend/internal/metrics"
	"github.com/xtding233/defuse-backend/internal/session"
)

func newServeCmd(g *globalOpts) *cobra.Command {
	var (
		gAddr string
		hAddr string
		rate  int
		arm   bool
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run one bomb session with the gRPC bridge and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g, gAddr, hAddr, rate, arm, watch)
		},
	}
	cmd.Flags().StringVar(&gAddr, "grpc-addr", grpcAddr(), "bridge listen address")
	cmd.Flags().StringVar(&hAddr, "http-addr", httpAddr(), "HTTP API listen address")
	cmd.Flags().IntVar(&rate, "rate", session.DefaultRate, "frames per second")
	cmd.Flags().BoolVar(&arm, "arm", false, "arm the bomb on start")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload scenario files for the next session")
	return cmd
}

func runServe(ctx context.Context, g *globalOpts, gAddr, hAddr string, rate int, arm, watch bool) error {
	log := g.logger()
	loader := g.loader()

	_, params, err := loader.Resolve(g.scenario, game.Overrides{})
	if err != nil {
		return err
	}

	collector := metrics.New()
	bus := events.NewBus(256)
	defer bus.Close()

	sess, err := session.New(params,
		session.WithLogger(log),
		session.WithSink(events.Multi(bus, collector)),
		session.WithFrameObserver(collector.ObserveFrame),
	)
	if err != nil {
		return err
	}
	defer sess.Close()

	var watcher *game.Watcher
	if watch {
		w, err := game.NewWatcher(loader.Paths().ScenarioDir(), game.DefaultDebounce, func(paths []string) {
			loader.Invalidate()
			if _, _, err := loader.Resolve(g.scenario, game.Overrides{}); err != nil {
				log.Error().Err(err).Msg("changed scenario no longer resolves")
				return
			}
			log.Info().Int("files", len(paths)).Msg("scenario reloaded; applies to the next session")
		}, log)
		if err != nil {
			return err
		}
		defer w.Close()
		watcher = w
	}

	grp, ctx := errgroup.WithContext(ctx)
	sess.OnOutcome(func(r bomb.Result) {
		log.Info().Str("outcome", r.Outcome.String()).Str("reason", r.Reason).Msg("round over")
	})
	if arm {
		sess.Arm()
	}

	grp.Go(func() error { return session.NewDriver(sess, rate).Run(ctx) })
	grp.Go(func() error { return bridge.NewServer(sess, bus, log).Serve(ctx, gAddr) })
	grp.Go(func() error {
		api := httpapi.New(sess,
			httpapi.WithMetrics(collector.Handler()),
			httpapi.WithScenarios(loader.Scenarios),
			httpapi.WithLogger(log),
		)
		return httpapi.Serve(ctx, hAddr, api, log)
	})
	if watcher != nil {
		grp.Go(func() error { return watcher.Run(ctx) })
	}

	log.Info().Str("session", sess.ID()).Str("scenario", g.scenario).Msg("serving")
	return grp.Wait()
}

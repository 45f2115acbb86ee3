// matchd runs a single-instrument matching engine fed by a bounded random
// order flow and prints depth snapshots. It exists to exercise the engine
// end to end; there is no network surface.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/trpleo/matching-engine/internal/common"
	"github.com/trpleo/matching-engine/internal/config"
	"github.com/trpleo/matching-engine/internal/engine"
	"github.com/trpleo/matching-engine/internal/metrics"
	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/pkg/num"
)

func main() {
	var (
		configPath string
		orders     int
		depth      int
		seed       int64
		quiet      bool
	)

	root := &cobra.Command{
		Use:   "matchd",
		Short: "Run a matching engine over a random order flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, orders, depth, seed, quiet)
		},
	}
	var flags *pflag.FlagSet = root.Flags()
	flags.StringVarP(&configPath, "config", "c", "configs/engine.yaml", "engine config file")
	flags.IntVarP(&orders, "orders", "n", 1000, "number of random orders to submit")
	flags.IntVarP(&depth, "depth", "d", 5, "snapshot depth")
	flags.Int64Var(&seed, "seed", 42, "random seed for the order flow")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress per-event logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, orders, depth int, seed int64, quiet bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pol, err := cfg.BuildPolicy()
	if err != nil {
		return fmt.Errorf("build policy: %w", err)
	}

	var sink engine.EventSink = engine.NewLogSink(log)
	if quiet {
		sink = engine.NoopSink{}
	}
	met := metrics.New(cfg.Instrument)
	if err := met.Register(prometheus.NewRegistry()); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	eng := engine.New(cfg.Instrument, pol, sink,
		engine.WithLogger(log),
		engine.WithMetrics(met),
	)

	log.Info().
		Str("instrument", cfg.Instrument).
		Str("policy", pol.Name()).
		Int("orders", orders).
		Msg("starting order flow")

	pump := engine.NewPump(eng, time.Second)
	go func() {
		if err := pump.Run(ctx); err != nil {
			log.Error().Err(err).Msg("pump exited")
		}
	}()

	rng := rand.New(rand.NewSource(seed))
	flow(ctx, pump, eng.Instrument(), rng, orders)
	if err := pump.Stop(); err != nil {
		log.Error().Err(err).Msg("pump shutdown")
	}

	snap := eng.Snapshot(depth)
	for _, row := range snap.Asks {
		log.Info().Str("side", "ask").Str("price", row.Price.String()).
			Str("qty", row.Quantity.String()).Int("orders", row.Orders).Msg("depth")
	}
	for _, row := range snap.Bids {
		log.Info().Str("side", "bid").Str("price", row.Price.String()).
			Str("qty", row.Quantity.String()).Int("orders", row.Orders).Msg("depth")
	}
	if snap.HasSpread {
		log.Info().Str("spread", snap.Spread.String()).Str("mid", snap.Mid.String()).Msg("top of book")
	}

	expired := eng.EndOfDay()
	log.Info().Int("expired", expired).Msg("end of day")
	return nil
}

// flow submits a random mix of limit and market orders around a fixed mid.
func flow(ctx context.Context, pump *engine.Pump, instrument string, rng *rand.Rand, n int) {
	accounts := []string{"alpha", "beta", "gamma", "mm1"}
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		side := common.Buy
		if rng.Intn(2) == 1 {
			side = common.Sell
		}
		kind := common.Limit
		if rng.Intn(10) == 0 {
			kind = common.Market
		}
		var price num.Dec
		if kind == common.Limit {
			price = num.MustFromInt(int64(95 + rng.Intn(11)))
		}
		tif := common.GoodTillCancel
		switch rng.Intn(12) {
		case 0:
			tif = common.ImmediateOrCancel
		case 1:
			tif = common.Day
		}

		o := order.New(
			uuid.New().String(),
			accounts[rng.Intn(len(accounts))],
			instrument,
			side,
			kind,
			price,
			num.MustFromInt(int64(1+rng.Intn(100))),
			tif,
			common.ShowAll(),
			time.Now(),
		)
		if err := pump.Submit(o); err != nil {
			return
		}
	}
}

package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/defistate/equilibrium-router-go/cmd/quoter/config"
	"github.com/defistate/equilibrium-router-go/protocols/tokenregistry/indexer"
	uniswapv2calculator "github.com/defistate/equilibrium-router-go/protocols/uniswapv2/calculator"
	"github.com/defistate/equilibrium-router-go/router"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// create the log handler
	rootLogHandler := slog.NewJSONHandler(os.Stdout, nil)
	close := func() {
		os.Exit(1)
	}

	rootLogger := slog.New(rootLogHandler)
	prometheusRegistry := prometheus.DefaultRegisterer

	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		close()
	}

	tokens := indexer.New().Index(cfg.Registry())
	pools := cfg.PoolSet()

	// Log the per-pool spot prices so the equilibrium quotes below can be
	// compared against what each pool would offer in isolation.
	for _, pool := range pools {
		spot, err := uniswapv2calculator.GetSpotPrice(pool.Token0, pool.Token1, pool)
		if err != nil {
			rootLogger.Error("Failed to compute spot price", "pool", pool.ID, "error", err)
			close()
		}
		rootLogger.Info("pool snapshot",
			"pool", pool.ID,
			"token0", pool.Token0,
			"token1", pool.Token1,
			"spot_price", spot,
		)
	}

	r, err := router.NewRouter(&router.Config{
		Pools:    pools,
		Tokens:   tokens,
		Logger:   rootLogger.With("component", "router"),
		Registry: prometheusRegistry,
	})
	if err != nil {
		rootLogger.Error("Failed to initialize router", "error", err)
		close()
	}

	system := router.NewSystem(r)

	for _, trade := range cfg.Trades {
		result, err := system.Swap(trade.Input, trade.Output, trade.Amount)
		if err != nil {
			rootLogger.Error("Trade failed",
				"input", trade.Input,
				"output", trade.Output,
				"amount", trade.Amount,
				"error", err,
			)
			close()
		}

		rootLogger.Info("trade resolved",
			"input", trade.Input,
			"output", trade.Output,
			"amount_in", result.InputAmount,
			"amount_out", result.OutputAmount,
			"sweeps", result.Stats.Sweeps,
			"converged", result.Stats.Converged,
		)
	}

	view := system.View()
	rootLogger.Info("final network state",
		"tokens", view.Tokens,
		"total_reserves", view.TotalReserves,
		"prices", view.Prices,
	)
}

func loadConfig() (*config.QuoterConfig, error) {
	configPath := flag.String("config", "quoter.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}

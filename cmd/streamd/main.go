package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"streamvault/config"
	"streamvault/core"
	"streamvault/observability/logging"
	"streamvault/rpc"
	"streamvault/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	if flag.Arg(0) == "keygen" {
		if err := runKeygen(os.Stdout, flag.Arg(1)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	env := strings.TrimSpace(os.Getenv("STREAMVAULT_ENV"))
	logger := logging.Setup("streamd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	node := core.NewNode(db)

	allocs, err := cfg.GenesisAllocs()
	if err != nil {
		logger.Error("Failed to parse genesis allocation", slog.Any("error", err))
		os.Exit(1)
	}
	if err := node.ApplyGenesis(allocs); err != nil {
		logger.Error("Failed to apply genesis allocation", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("node ready", "network", cfg.NetworkName, "dataDir", cfg.DataDir)

	server := rpc.NewServer(node, logger)
	server.SetRateLimit(cfg.RPCRatePerMinute, cfg.RPCRateBurst)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/uhyunpark/ridematcher/params"
	"github.com/uhyunpark/ridematcher/pkg/api"
	"github.com/uhyunpark/ridematcher/pkg/app/matcher"
	"github.com/uhyunpark/ridematcher/pkg/node"
	"github.com/uhyunpark/ridematcher/pkg/storage"
	"github.com/uhyunpark/ridematcher/pkg/util"
)

func main() {
	// Priority: ENV > .env file > defaults
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerFor(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.LogFile)

	// ---- Storage ----
	// An empty DATA_DIR keeps everything in memory.
	var store storage.OrderStore
	var audit storage.AuditLog = storage.NewNopAuditLog()
	if cfg.DataDir == "" {
		store = storage.NewMemoryStore()
		sugar.Warn("storage_ephemeral - orders are lost on restart")
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			sugar.Fatalw("data_dir_failed", "dir", cfg.DataDir, "err", err)
		}
		pebbleStore, err := storage.NewPebbleStore(filepath.Join(cfg.DataDir, "orders"))
		if err != nil {
			sugar.Fatalw("store_open_failed", "err", err)
		}
		store = pebbleStore

		fileAudit, err := storage.NewFileAuditLog(filepath.Join(cfg.DataDir, "audit.log"))
		if err != nil {
			sugar.Fatalw("audit_log_open_failed", "err", err)
		}
		defer fileAudit.Close()
		audit = fileAudit
	}
	defer store.Close()

	// ---- Node + App ----
	client := node.New(cfg.Node.URL,
		node.WithTimeout(cfg.Node.Timeout),
		node.WithRetries(cfg.Node.Retries),
		node.WithLogger(sugar.Named("node")))

	app := matcher.NewApp(matcher.Config{
		ChainID:        cfg.Node.ChainID,
		FactoryAddress: cfg.FactoryAddress,
	}, client, store, audit, util.RealClock{}, sugar.Named("matcher"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.FactoryAddress == "" {
		sugar.Warn("factory_unset - FACTORY_ADDRESS is required to encode orders without an explicit matcher key")
	} else if f, err := app.Factory(ctx, true); err != nil {
		sugar.Warnw("factory_load_failed", "address", cfg.FactoryAddress, "err", err)
	} else {
		sugar.Infow("factory_loaded",
			"address", f.Address,
			"matcher", f.MatcherPublicKey,
			"validator", f.ValidatorAddress,
			"prediction_validator", f.PredictionValidatorAddress,
			"treasury", f.TreasuryAddress,
			"events", len(f.Events))
	}

	// ---- API Server ----
	server := api.NewServer(app, cfg.API, sugar.Named("api"))
	sugar.Infow("server_starting",
		"node", cfg.Node.URL,
		"chain_id", string(rune(cfg.Node.ChainID)),
		"api_addr", cfg.API.Addr,
		"data_dir", cfg.DataDir)

	if err := server.Start(ctx); err != nil {
		sugar.Errorw("api_server_failed", "err", err)
		return
	}
	sugar.Info("server_stopped")
}

package main

import (
	"context"
	"log"
	"math/big"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nuvana-labs/solverd/params"
	"github.com/nuvana-labs/solverd/pkg/api"
	"github.com/nuvana-labs/solverd/pkg/audit"
	"github.com/nuvana-labs/solverd/pkg/buffers"
	"github.com/nuvana-labs/solverd/pkg/crypto"
	"github.com/nuvana-labs/solverd/pkg/interactions"
	"github.com/nuvana-labs/solverd/pkg/oracle"
	"github.com/nuvana-labs/solverd/pkg/orders"
	"github.com/nuvana-labs/solverd/pkg/proposalqueue"
	"github.com/nuvana-labs/solverd/pkg/service"
	"github.com/nuvana-labs/solverd/pkg/settlement"
	"github.com/nuvana-labs/solverd/pkg/tokenpairs"
	"github.com/nuvana-labs/solverd/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "data/solverd.log"
	}

	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	bufferStore, err := buffers.NewStore(filepath.Join(cfg.Storage.DataDir, cfg.Storage.BufferDBSubdir))
	if err != nil {
		sugar.Fatalw("buffer_store_init_failed", "err", err)
	}
	defer bufferStore.Close()

	bufferManager, err := buffers.NewManager(bufferStore)
	if err != nil {
		sugar.Fatalw("buffer_manager_init_failed", "err", err)
	}

	ledger, err := audit.NewLedger(filepath.Join(cfg.Storage.DataDir, cfg.Storage.AuditDBSubdir))
	if err != nil {
		sugar.Fatalw("audit_ledger_init_failed", "err", err)
	}
	defer ledger.Close()

	pairs := tokenpairs.NewRegistry()

	eipSigner := crypto.NewEIP712Signer(crypto.DefaultDomain())
	book := orders.NewBook(eipSigner)

	quoterSigner, err := crypto.GenerateKey()
	if err != nil {
		sugar.Fatalw("quoter_signer_init_failed", "err", err)
	}
	quoter := &interactions.SigningQuoter{Signer: quoterSigner, EIP712Signer: eipSigner}

	priceOracle := oracle.NewReferencePrices(cfg.Settlement.NativeToken, map[common.Address]*big.Rat{})

	pipeline := &service.Pipeline{
		Book:        book,
		Buffers:     bufferManager,
		Ledger:      ledger,
		Oracle:      priceOracle,
		Allowances:  interactions.NewAllowanceCache(),
		Quoter:      quoter,
		GasPriceWei: cfg.Settlement.DefaultGasPriceWei,
		GasPerOrder: settlement.FromUint64(cfg.Settlement.GasPerOrder),
	}

	queue := proposalqueue.NewQueue(cfg.Settlement.ProposalQueueCap)
	_ = queue // the submission API runs proposals through the pipeline directly; nothing here pushes to or drains the queue, whose length is only reported in the heartbeat

	apiServer := api.NewServer(pipeline, ledger, bufferManager, pairs, cfg.API.AllowedOrigins, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := apiServer.Start(cfg.API.ListenAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("solverd_starting",
		"listen_addr", cfg.API.ListenAddr,
		"data_dir", cfg.Storage.DataDir,
		"gas_per_order", cfg.Settlement.GasPerOrder)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sugar.Info("solverd_shutting_down")
			return
		case <-ticker.C:
			sugar.Infow("heartbeat", "pending_proposals", queue.Len())
		}
	}
}

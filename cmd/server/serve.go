package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/cfledger/internal/chain"
	"github.com/blues/cfledger/internal/config"
	"github.com/blues/cfledger/internal/engine"
	"github.com/blues/cfledger/internal/event"
	"github.com/blues/cfledger/internal/handler"
	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/logic"
	"github.com/blues/cfledger/internal/repository"
	"github.com/blues/cfledger/internal/router"
	"github.com/blues/cfledger/internal/task"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// engineConfig 将配置中的地址和初始余额解析为执行环境配置
func engineConfig(cfg config.LedgerConfig, vault config.VaultConfig) (engine.Config, error) {
	address, err := chain.ParseAddress(cfg.Address)
	if err != nil {
		return engine.Config{}, fmt.Errorf("ledger.address: %w", err)
	}
	owner, err := chain.ParseAddress(cfg.Owner)
	if err != nil {
		return engine.Config{}, fmt.Errorf("ledger.owner: %w", err)
	}
	wallet, err := chain.ParseAddress(cfg.PlatformWallet)
	if err != nil {
		return engine.Config{}, fmt.Errorf("ledger.platform_wallet: %w", err)
	}

	genesis := make(map[common.Address]*big.Int, len(vault.Genesis))
	for _, alloc := range vault.Genesis {
		addr, err := chain.ParseAddress(alloc.Address)
		if err != nil {
			return engine.Config{}, fmt.Errorf("vault.genesis address %q: %w", alloc.Address, err)
		}
		balance, err := chain.ParseEther(alloc.Balance)
		if err != nil {
			return engine.Config{}, fmt.Errorf("vault.genesis balance for %s: %w", alloc.Address, err)
		}
		if prev, ok := genesis[addr]; ok {
			balance.Add(balance, prev)
		}
		genesis[addr] = balance
	}

	return engine.Config{
		Address:        address,
		Owner:          owner,
		PlatformWallet: wallet,
		FeeRate:        cfg.FeeRate,
		Genesis:        genesis,
	}, nil
}

// openStore 连接投影库并清空旧投影
func openStore(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := repository.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Warn("Resetting projection tables for a fresh in-memory ledger")
	if err := repository.Reset(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newRelay 组装事件投递器和全部投影处理器
func newRelay(db *gorm.DB, eng *engine.Engine, contract *chain.Contract, eventLogic *logic.EventLogic) *event.Relay {
	projectLogic := logic.NewProjectLogic(db)
	return event.NewRelay(eng.Outbox(), contract, eventLogic, event.NewProcessorManager(
		event.NewProjectCreatedProcessor(projectLogic, eng),
		event.NewProjectSuccessfulProcessor(projectLogic),
		event.NewProjectFailedProcessor(projectLogic),
		event.NewContributeProcessor(logic.NewContributeRecordLogic(db)),
		event.NewRefundProcessor(logic.NewRefundRecordLogic(db)),
		event.NewSettlementProcessor(logic.NewSettlementRecordLogic(db)),
	))
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := openStore(cfg.Database)
	if err != nil {
		return err
	}

	// 初始化账本执行环境
	engCfg, err := engineConfig(cfg.Ledger, cfg.Vault)
	if err != nil {
		return err
	}
	eng, err := engine.New(engCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}
	contract, err := chain.NewContract("crowdfunding", engCfg.Address)
	if err != nil {
		return err
	}

	// 事件投递
	eventLogic := logic.NewEventLogic(db)
	relay := newRelay(db, eng, contract, eventLogic)

	// 启动定时任务
	manager, err := task.NewManager(
		task.NewEventRelayJob(relay, cfg.Task.Interval),
		task.NewProjectDeadlineJob(db, eng, cfg.Task.Interval),
	)
	if err != nil {
		return err
	}
	if err := manager.RegisterJobs(); err != nil {
		return err
	}
	manager.Start()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Setup(handler.NewLedgerHandler(eng, relay, eventLogic), handler.NewRecordHandler(db)),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			manager.Stop()
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown: %v", err)
	}
	manager.Stop()

	// 投递剩余事件
	relayed, err := relay.Flush()
	if err != nil {
		logger.Error("Final relay left %d events pending: %v", relay.Pending(), err)
	} else {
		logger.Info("Final relay delivered %d events", relayed)
	}
	return nil
}

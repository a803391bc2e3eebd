// File path: cmd/trackwise-search/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/sijms/go-ora/v2"

	"github.com/mattlimsiaco/trackwise-search/internal/api"
	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/config"
	"github.com/mattlimsiaco/trackwise-search/internal/llm"
	"github.com/mattlimsiaco/trackwise-search/internal/oracle"
	"github.com/mattlimsiaco/trackwise-search/internal/schema"
	"github.com/mattlimsiaco/trackwise-search/internal/verified"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("trackwise: .env file not loaded", "error", err)
	} else {
		logger.Info("trackwise: environment loaded from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("trackwise: config load failed", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Addr, "listen address")
	snapshotPath := flag.String("schema-snapshot", cfg.SnapshotPath, "path to the schema embedding snapshot CSV")
	verifiedPath := flag.String("verified-log", cfg.VerifiedPath, "path to the verified-query JSONL log")
	topN := flag.Int("top-n", cfg.RetrievalTopN, "number of verified queries retrieved as context")
	flag.Parse()

	logger.Info("trackwise: startup initiated", "addr", *addr, "snapshot", *snapshotPath, "verified_log", *verifiedPath)

	provider := llm.NewProvider()
	logger.Info("trackwise: llm provider ready", "provider", provider.Name())

	index, err := schema.LoadIndex(ctx, *snapshotPath, provider)
	if err != nil {
		logger.Error("trackwise: schema index load failed", "error", err)
		fmt.Println("schema index error:", err)
		os.Exit(1)
	}

	store, err := verified.OpenStore(*verifiedPath)
	if err != nil {
		logger.Error("trackwise: verified store open failed", "error", err)
		fmt.Println("verified store error:", err)
		os.Exit(1)
	}

	var executor api.Executor
	if strings.TrimSpace(cfg.Oracle.DSN) != "" {
		db, err := oracle.Open(oracle.Config{
			Username:        cfg.Oracle.Username,
			Password:        cfg.Oracle.Password,
			DSN:             cfg.Oracle.DSN,
			Owner:           cfg.Oracle.Owner,
			MaxOpenConns:    cfg.Oracle.MaxOpenConns,
			MaxIdleConns:    cfg.Oracle.MaxIdleConns,
			ConnMaxLifetime: cfg.Oracle.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("trackwise: oracle connection failed", "error", err)
			fmt.Println("oracle error:", err)
			os.Exit(1)
		}
		defer db.Close()
		executor = db
	} else {
		logger.Warn("trackwise: ORACLE_DSN not set; queries will return SQL without executing")
	}

	apiCfg := api.Config{
		RetrievalTopN: *topN,
		SnapshotPath:  *snapshotPath,
		ExportTTL:     cfg.ExportTTL,
		ExportMax:     cfg.ExportMax,
	}
	server, err := api.NewServer(index, store, provider, executor, &apiCfg)
	if err != nil {
		logger.Error("trackwise: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("trackwise: server listening", "addr", *addr, "health", "/healthz", "metrics", "/metrics")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("trackwise: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

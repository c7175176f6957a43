package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/htvnhe/fhe-poker/fhe"
	"github.com/htvnhe/fhe-poker/gateway"
	"github.com/htvnhe/fhe-poker/history"
	"github.com/htvnhe/fhe-poker/ledger"
)

const defaultChainID = 31337

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Server] .env load: %v", err)
	}

	chainID := envUint64("CHAIN_ID", defaultChainID)

	histService, histMode, err := history.NewServiceFromEnv(os.Getenv("HISTORY_STORE"))
	if err != nil {
		log.Fatalf("[Server] Failed to init history service: %v", err)
	}
	defer histService.Close()

	oracle := fhe.NewLocalOracle()
	devnet := ledger.NewDevnetSeeded(oracle, envInt64("DEVNET_SEED", 0))

	gw := gateway.New(gateway.Config{
		Ledger:    devnet,
		Transport: oracle,
		Contract:  devnet.Contract(),
		ChainID:   chainID,
		History:   histService,
	})

	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)

	addr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("[Server] History mode: %s", histMode)
	log.Printf("[Server] Devnet contract: %s (chain %d)", devnet.Contract(), chainID)
	log.Printf("[Server] Starting WebSocket server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}

func envUint64(key string, fallback uint64) uint64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

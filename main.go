package main

import (
	"flag"
	"log"

	"DateOps/internal/server"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	addr := flag.String("addr", cfg.Addr, "address to listen on (e.g., 127.0.0.1:8080)")
	catalogPath := flag.String("catalog", cfg.CatalogPath, "path to catalog YAML (empty for the embedded default)")
	savePath := flag.String("save", cfg.SavePath, "path to the session save database (empty to disable persistence)")
	testTime := flag.String("test-time", cfg.TestTime, "simulate the session clock (zero-padded HH:MM)")
	noRestrictions := flag.Bool("no-restrictions", cfg.NoRestrictions, "disable all time gating (test mode)")
	unlockDate := flag.String("unlock-date", cfg.UnlockDate, "seal the operation until this date (YYYY-MM-DD)")
	flag.Parse()

	cfg.Addr = *addr
	cfg.CatalogPath = *catalogPath
	cfg.SavePath = *savePath
	cfg.TestTime = *testTime
	cfg.NoRestrictions = *noRestrictions
	cfg.UnlockDate = *unlockDate

	server.StartApp(cfg)
}

package server

import (
	"log"
	"time"

	"DateOps/internal/game"
	"DateOps/internal/store"
)

// StartApp loads the catalog, restores or creates the session, and runs the
// web server. Blocks until the server exits.
func StartApp(cfg Config) {
	catalog, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	seed := time.Now().UnixNano()
	var snapshots *store.Store
	if cfg.SavePath != "" {
		snapshots, err = store.Open(cfg.SavePath)
		if err != nil {
			log.Printf("store: %v (running without persistence)", err)
			snapshots = nil
		}
	}

	session := loadOrCreateSession(snapshots, catalog, seed)
	session.UnlockDate = cfg.UnlockDate

	var saveSink game.SnapshotStore
	if snapshots != nil {
		saveSink = snapshots
	}
	hub := NewHub(nil, cfg.TestPassword)
	ctrl := game.NewController(session, saveSink, hub.Notify)
	hub.ctrl = ctrl

	if cfg.TestTime != "" || cfg.NoRestrictions {
		if err := ctrl.SetTimeOverride(cfg.TestTime, cfg.NoRestrictions); err != nil {
			log.Fatalf("test time: %v", err)
		}
		log.Printf("test mode: clock=%q restrictions_disabled=%v", cfg.TestTime, cfg.NoRestrictions)
	}
	ctrl.EvaluateClock()

	// Mission windows move on minute boundaries; countdowns on seconds.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			hub.RunClockTick()
		}
	}()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			hub.RunCountdownTick()
		}
	}()

	log.Printf("starting web server on %s (save %q, %d missions)", cfg.Addr, cfg.SavePath, len(catalog.Missions))
	startServer(hub, cfg.Addr)
}

// loadOrCreateSession restores the saved evening when a usable snapshot
// exists, otherwise samples a fresh one.
func loadOrCreateSession(snapshots *store.Store, catalog *game.Catalog, seed int64) *game.Session {
	if snapshots != nil {
		data, ok, err := snapshots.Load()
		if err != nil {
			log.Printf("load snapshot: %v (starting fresh)", err)
		} else if ok {
			session, err := game.RestoreSession(data, catalog, seed)
			if err != nil {
				log.Printf("restore snapshot: %v (starting fresh)", err)
			} else {
				log.Printf("restored saved session (score %d)", session.Ledger.TotalScore)
				return session
			}
		}
	}
	return game.NewSession(catalog, seed)
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	flag "github.com/spf13/pflag"

	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/sonroyaalmerol/rconjukebox/internal/handlers"
	"github.com/sonroyaalmerol/rconjukebox/internal/ingest"
	"github.com/sonroyaalmerol/rconjukebox/internal/repository"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	var gameDir, ledger string
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "console log to read chat commands from")
	flag.StringVar(&gameDir, "game-dir", cfg.GameDir, "game install dir, used when --log-file is not given (default: found through Steam libraryfolders.vdf)")
	flag.StringVar(&cfg.RCONAddr, "rcon-addr", cfg.RCONAddr, "RCON host:port")
	flag.StringVar(&cfg.RCONPassword, "rcon-password", cfg.RCONPassword, "RCON password")
	flag.StringVar(&cfg.HostListen, "listen", cfg.HostListen, "player page listen address")
	flag.StringVar(&ledger, "ledger", string(cfg.LedgerMode), "how consumed lines are tracked: offset or rewrite")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.Parse()

	if flag.CommandLine.Changed("game-dir") && !flag.CommandLine.Changed("log-file") {
		cfg.GameDir = gameDir
		cfg.LogFile = ""
	}
	cfg.LedgerMode = config.LedgerMode(ledger)
	if err := cfg.Finalize(); err != nil {
		log.Fatal(err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("invalid log level %q", cfg.LogLevel)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var store ingest.OffsetStore
	if cfg.LedgerMode == config.LedgerOffset {
		db, err := repository.OpenDB(cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		store = repository.NewRepo(db)
	}

	bridge, err := handlers.NewBridge(cfg, store, nil)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting", "rcon", cfg.RCONAddr, "log", cfg.LogFile, "ledger", cfg.LedgerMode, "listen", cfg.HostListen)
	if err := bridge.Run(ctx); err != nil {
		log.Fatal(err)
	}
}

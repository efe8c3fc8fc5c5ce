// Command freefall plays freefall rounds headlessly on a 60 Hz frame clock,
// resolving outcomes locally or through a remote authority.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MJE43/freefall-wager/internal/authority"
	"github.com/MJE43/freefall-wager/internal/autoplay"
	"github.com/MJE43/freefall-wager/internal/config"
	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/ledger"
	"github.com/MJE43/freefall-wager/internal/livehttp"
	"github.com/MJE43/freefall-wager/internal/outcome"
	"github.com/MJE43/freefall-wager/internal/round"
	"github.com/MJE43/freefall-wager/internal/wallet"
)

type options struct {
	configPath string
	scriptPath string
	bet        float64
	mode       string
	rounds     int
	realtime   bool
	livePort   int
	seed       uint64
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file (defaults to built-in settings)")
	flag.StringVar(&opts.scriptPath, "script", "", "autoplay strategy (JavaScript defining dobet())")
	flag.Float64Var(&opts.bet, "bet", 10, "stake per round in base mode")
	flag.StringVar(&opts.mode, "mode", "base", "mode: base, noZero or chaos")
	flag.IntVar(&opts.rounds, "rounds", 10, "rounds to play (0 = until stopped)")
	flag.BoolVar(&opts.realtime, "realtime", false, "pace frames at 60 Hz instead of running flat out")
	flag.IntVar(&opts.livePort, "live-port", 0, "serve the live API on 127.0.0.1:<port> (0 = off)")
	flag.Uint64Var(&opts.seed, "seed", 0, "seed for local draws and world spawns (0 = time based)")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("freefall: %v", err)
	}
}

func run(opts options) error {
	logger := log.New(os.Stdout, "[FREEFALL] ", log.LstdFlags)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	mode, err := outcome.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	var script string
	if opts.scriptPath != "" {
		b, err := os.ReadFile(opts.scriptPath)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		script = string(b)
	}

	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var resolver outcome.Resolver
	source := outcome.SourceLocal
	if cfg.Remote() {
		client := authority.NewClient(cfg.AuthorityClient())
		resolver = outcome.NewRemoteResolver(client, log.New(os.Stdout, "[AUTHORITY] ", log.LstdFlags))
		source = outcome.SourceRemote
	} else {
		resolver = outcome.NewLocalResolver(cfg.Tables(), engine.NewRandSource(seed), log.New(os.Stdout, "[OUTCOME] ", log.LstdFlags))
	}
	logger.Printf("Outcomes resolved %s", source)

	w := wallet.NewFromFloat(cfg.Round.Balance)

	var (
		store    *ledger.Store
		recorder *ledger.Recorder
	)
	if cfg.Ledger.Path != "" {
		store, err = ledger.New(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		sessionID, err := store.CreateSession(&ledger.Session{
			Source:       string(source),
			Script:       opts.scriptPath,
			StartBalance: cfg.Round.Balance,
		})
		if err != nil {
			return err
		}
		recorder = ledger.NewRecorder(store, sessionID, cfg.Ledger.FlushSize, nil)
		logger.Printf("Recording session %s to %s", sessionID, cfg.Ledger.Path)
	}

	feed := livehttp.NewFeed(500)
	lcfg := round.Config{
		Resolver:     resolver,
		Wallet:       w,
		Modes:        cfg.RoundModes(),
		Source:       engine.NewRandSource(seed + 1),
		Emitter:      feed,
		SnapToTarget: cfg.Round.SnapToTarget,
	}
	if recorder != nil {
		lcfg.Recorder = recorder
	}
	life, err := round.NewLifecycle(lcfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Remote() {
		if err := life.Connect(ctx); err != nil {
			logger.Printf("Authority not reachable yet, will retry on first bet: %v", err)
		}
	}

	if opts.livePort > 0 {
		live := livehttp.New(life, feed, store, opts.livePort, nil)
		if err := live.Start(); err != nil {
			return fmt.Errorf("live api: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = live.Shutdown(shutdownCtx)
		}()
	}

	eng, err := autoplay.New(life, autoplay.Config{
		Script:    script,
		BaseBet:   opts.bet,
		Mode:      mode,
		MaxRounds: opts.rounds,
		Realtime:  opts.realtime,
	})
	if err != nil {
		return err
	}
	runErr := eng.Run(ctx)

	snap := eng.GetState()
	final := life.Snapshot().Balance
	logger.Printf("Played %d rounds (%d won, %d lost, %d resets), wagered %.2f, paid %.2f, RTP %.4f, balance %.2f",
		snap.Stats.Bets, snap.Stats.Wins, snap.Stats.Losses, snap.Stats.Resets,
		snap.Stats.Wagered, snap.Stats.Paid, snap.Stats.RTP(), final)
	for _, entry := range eng.Logs() {
		logger.Printf("script: %s", entry.Message)
	}

	if recorder != nil {
		recorder.Flush()
		if err := store.EndSession(recorder.SessionID(), final); err != nil {
			logger.Printf("End session: %v", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

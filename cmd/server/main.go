package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skirmish/skirmish/internal/config"
	"github.com/skirmish/skirmish/internal/core/events/bus"
	"github.com/skirmish/skirmish/internal/core/mapdata"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/round"
	"github.com/skirmish/skirmish/internal/core/session"
	"github.com/skirmish/skirmish/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	lg := log.New(log.ParseLevel(cfg.LogLevel))

	if err := run(cfg, lg); err != nil {
		lg.Error("server exited", log.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, lg log.Log) error {
	m := mapdata.Fallback()
	if cfg.MapPath != "" {
		m = mapdata.LoadOrFallback(cfg.MapPath, lg)
	}

	sess := session.New(session.Config{
		Seed: cfg.Seed,
		Round: round.Config{
			RoundTime:  cfg.Match.RoundTimeSec,
			FreezeTime: cfg.Match.FreezeTimeSec,
			WinScore:   cfg.Match.WinScore,
		},
	}, m, lg)
	wireAudioLog(sess, lg)

	srv := server.New(cfg.ListenAddr, sess, m.Fingerprint, lg)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	g.Go(func() error {
		interval := time.Second / time.Duration(cfg.TickRate)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				sess.Step(now.Sub(last).Seconds())
				last = now
				srv.Broadcast()
			}
		}
	})

	lg.Info("match server running",
		log.String("addr", cfg.ListenAddr),
		log.Int("tick_rate", cfg.TickRate))
	return g.Wait()
}

// wireAudioLog stands in for an audio client: combat events surface in the
// debug log with the same payloads a sound layer would consume.
func wireAudioLog(sess *session.Session, lg log.Log) {
	sess.Events.Subscribe(bus.TopicWeaponFired, func(e bus.Event) {
		ev := e.(bus.WeaponFired)
		lg.Debug("sfx weapon", log.Int("pawn", ev.PawnID), log.String("weapon", ev.Weapon.String()))
	})
	sess.Events.Subscribe(bus.TopicGrenadeDetonated, func(e bus.Event) {
		ev := e.(bus.GrenadeDetonated)
		lg.Debug("sfx detonation", log.String("kind", ev.Kind.String()))
	})
	sess.Events.Subscribe(bus.TopicRoundEnded, func(e bus.Event) {
		ev := e.(bus.RoundEnded)
		lg.Debug("sfx round end", log.String("winner", ev.Winner.String()))
	})
}

// Command eidolon runs the NPC cognition service: it loads a campaign's NPC
// profiles, wires the memory, relationship, and decision stores, and runs
// simulation turns until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/thornwick/eidolon/internal/combat"
	"github.com/thornwick/eidolon/internal/config"
	"github.com/thornwick/eidolon/internal/decision"
	"github.com/thornwick/eidolon/internal/dialogue"
	"github.com/thornwick/eidolon/internal/health"
	"github.com/thornwick/eidolon/internal/observe"
	"github.com/thornwick/eidolon/internal/persona"
	"github.com/thornwick/eidolon/pkg/memory"
	memorypg "github.com/thornwick/eidolon/pkg/memory/postgres"
	"github.com/thornwick/eidolon/pkg/relation"
	relationsqlite "github.com/thornwick/eidolon/pkg/relation/sqlite"
	"github.com/thornwick/eidolon/pkg/rng"
)

// turnInterval paces the demo simulation loop.
const turnInterval = 2 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "eidolon: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "eidolon: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("eidolon starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
		"campaign", cfg.Simulation.CampaignFile,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "eidolon"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Storage ───────────────────────────────────────────────────────────────
	memBackend, closeMem, err := buildMemoryBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open memory backend", "err", err)
		return 1
	}
	defer closeMem()

	relBackend, closeRel, err := buildRelationBackend(cfg)
	if err != nil {
		slog.Error("failed to open relation backend", "err", err)
		return 1
	}
	defer closeRel()

	// ── Cognition core ────────────────────────────────────────────────────────
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		slog.Info("no seed configured, derived one from the clock", "seed", seed)
	}
	random := rng.NewSeeded(seed)

	memories := memory.NewStore(memBackend, memory.WithConfig(cfg.Memory))
	ledger := relation.NewLedger(relBackend, random)
	engineOpts := []decision.Option{
		decision.WithLogger(logger),
		decision.WithMetrics(metrics),
	}
	if cfg.Decision.TopK > 0 {
		engineOpts = append(engineOpts, decision.WithTopK(cfg.Decision.TopK))
	}
	world := &staticWorld{}
	engine := decision.NewEngine(memories, ledger, world, random, engineOpts...)
	constraints := dialogue.NewBuilder(memories, ledger)

	// ── Campaign ──────────────────────────────────────────────────────────────
	var npcs []persona.NPCProfile
	if cfg.Simulation.CampaignFile != "" {
		campaign, err := persona.LoadCampaignFile(cfg.Simulation.CampaignFile)
		if err != nil {
			slog.Error("failed to load campaign", "err", err)
			return 1
		}
		npcs = campaign.NPCs
		slog.Info("campaign loaded", "name", campaign.Campaign.Name, "npcs", len(npcs))
	}
	metrics.ActiveNPCs.Add(ctx, int64(len(npcs)))
	defer metrics.ActiveNPCs.Add(context.Background(), -int64(len(npcs)))

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if addr := cfg.Server.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		health.New(
			health.MemoryBackend(memBackend),
			health.RelationBackend(relBackend),
		).Register(mux)

		srv := &http.Server{Addr: addr, Handler: mux}
		g.Go(func() error {
			slog.Info("metrics endpoint listening", "addr", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	s := &sim{
		engine:      engine,
		constraints: constraints,
		memories:    memories,
		ledger:      ledger,
		world:       world,
		metrics:     metrics,
		npcs:        npcs,
	}
	g.Go(func() error {
		return s.run(gctx)
	})

	slog.Info("eidolon ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// sim drives the demo world: one decision turn per NPC per tick, with the
// resulting episode fed back into memory and the relationship ledger.
type sim struct {
	engine      *decision.Engine
	constraints *dialogue.Builder
	memories    *memory.Store
	ledger      *relation.Ledger
	world       decision.ContextProvider
	metrics     *observe.Metrics
	npcs        []persona.NPCProfile
}

// run executes decision turns on a fixed cadence until ctx is cancelled.
// NPCs decide in parallel within a turn; each decision is a pure computation
// over its own snapshot.
func (s *sim) run(ctx context.Context) error {
	if len(s.npcs) == 0 {
		slog.Warn("no NPCs configured, idling")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(turnInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, npc := range s.npcs {
			npc := npc
			g.Go(func() error {
				return s.runTurn(gctx, npc)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
}

// runTurn makes one decision for one NPC, exports its dialogue envelope, and
// records the episode so future turns can recall it.
func (s *sim) runTurn(ctx context.Context, npc persona.NPCProfile) error {
	dec, err := s.engine.Decide(ctx, npc, defaultAffordances())
	if errors.Is(err, decision.ErrNoViableAction) {
		dec = decision.Decision{NPCID: npc.ID, Chosen: decision.WaitAction()}
	} else if err != nil {
		return fmt.Errorf("turn for npc %q: %w", npc.ID, err)
	}

	env, err := s.constraints.BuildConstraints(ctx, npc, "player", "", nil)
	if err != nil {
		return fmt.Errorf("constraints for npc %q: %w", npc.ID, err)
	}

	// The turn itself becomes an episode: a mild positive interaction with
	// whoever the NPC acted toward.
	ev := memory.Event{
		Type:         memory.TypeAction,
		Description:  fmt.Sprintf("%s chose to %s in the village square", npc.Name, dec.Chosen.Tag),
		Valence:      0.1,
		Participants: []string{npc.ID, "player"},
	}
	if formed, err := s.memories.Form(ctx, npc.ID, ev); err != nil {
		return fmt.Errorf("episode for npc %q: %w", npc.ID, err)
	} else if formed != nil {
		s.metrics.MemoriesFormed.Add(ctx, 1, metric.WithAttributes(observe.Attr("npc_id", npc.ID)))
	}
	if _, err := s.ledger.Update(ctx, npc.ID, "player", ev); err != nil {
		return fmt.Errorf("ledger for npc %q: %w", npc.ID, err)
	}
	s.metrics.RecordRelationshipUpdate(ctx, npc.ID, string(memory.TypeAction))

	// Standing posture check: a healthy NPC reading the ambient danger.
	// A real combat resolver would supply the full snapshot mid-fight.
	sit, err := s.world.GetContext(ctx, npc.ID)
	if err != nil {
		return fmt.Errorf("situation for npc %q: %w", npc.ID, err)
	}
	posture := combat.Classify(npc.Traits, combat.Evaluation{
		HPPercentage:         1,
		ResourcesRemaining:   1,
		EscapeRoutes:         1,
		StrongestEnemyThreat: sit.DangerLevel,
		TotalEnemyThreat:     sit.DangerLevel,
	})
	s.metrics.RecordCombatClassification(ctx, string(posture))

	slog.Info("turn resolved",
		"npc_id", npc.ID,
		"action", dec.Chosen.Tag,
		"total", dec.Chosen.Total,
		"attitude", env.Attitude,
		"urgency", env.Urgency,
		"posture", posture,
	)
	return nil
}

// defaultAffordances is the baseline action set every NPC can consider when
// the world layer supplies nothing richer.
func defaultAffordances() []decision.Affordance {
	return []decision.Affordance{
		{Tag: "greet", Description: "greets whoever is present", Risk: 0.05},
		{Tag: "watch", Description: "keeps an eye on the surroundings", Risk: 0.05},
		{Tag: "learn", Description: "listens for news and rumors", Risk: 0.1},
		{Tag: "trade", Description: "looks for a deal", Risk: 0.2, Serves: []string{string(persona.MotivationWealth)}},
	}
}

// staticWorld is a placeholder context provider used until a real world
// simulation is attached.
type staticWorld struct{}

func (staticWorld) GetContext(ctx context.Context, npcID string) (decision.Situation, error) {
	return decision.Situation{
		Location:        "village square",
		EntitiesPresent: []string{"player"},
		DangerLevel:     0.1,
		CounterpartID:   "player",
	}, nil
}

// buildMemoryBackend opens the configured episodic memory store.
func buildMemoryBackend(ctx context.Context, cfg *config.Config) (memory.Backend, func(), error) {
	switch cfg.Storage.Memories.Backend {
	case config.BackendPostgres:
		store, err := memorypg.NewStore(ctx, cfg.Storage.Memories.PostgresDSN, cfg.Storage.Memories.EmbeddingDimensions)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return memory.NewMemStore(), func() {}, nil
	}
}

// buildRelationBackend opens the configured relationship store.
func buildRelationBackend(cfg *config.Config) (relation.Backend, func(), error) {
	switch cfg.Storage.Relations.Backend {
	case config.BackendSQLite:
		store, err := relationsqlite.Open(cfg.Storage.Relations.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Warn("relation store close error", "err", err)
			}
		}, nil
	default:
		return relation.NewMemStore(), func() {}, nil
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

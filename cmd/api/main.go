package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/face2phrase/backend/internal/analysis"
	"github.com/face2phrase/backend/internal/api"
	"github.com/face2phrase/backend/internal/llm"
	"github.com/face2phrase/backend/internal/media"
	"github.com/face2phrase/backend/internal/orchestrator"
	"github.com/face2phrase/backend/internal/report"
	"github.com/face2phrase/backend/internal/stores/session"
	"github.com/face2phrase/backend/internal/stores/users"
	"github.com/face2phrase/backend/internal/transcribe"
	"github.com/face2phrase/backend/pkg/keypool"
	"github.com/face2phrase/backend/pkg/utils"
)

// Start the API server
func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	// Collect API credentials; a single OPENAI_API_KEY still works
	keys := splitKeys(cfg.Get("API_KEYS"))
	if len(keys) == 0 {
		keys = splitKeys(cfg.Get("OPENAI_API_KEY"))
	}
	if len(keys) == 0 {
		log.Fatal("[MAIN]: No API credentials configured, set API_KEYS")
	}

	pool := keypool.NewPool(keys, cfg.GetDuration("KEY_COOLDOWN", keypool.DefaultCooldown))
	scheduler := keypool.NewScheduler(pool, llm.NewGenerator(cfg.Get("MODEL_NAME")), nil)

	baseDir := cfg.GetWithDefault("DATA_DIR", "uploads")
	store := newSessionStore(cfg, baseDir)

	// Optional media components, missing ones degrade their pipeline stage
	var transcriber transcribe.Transcriber
	if !cfg.Has("ENABLE_TRANSCRIPTION") || cfg.GetBool("ENABLE_TRANSCRIPTION") {
		transcriber = transcribe.NewWhisperTranscriber(keys[0])
	}

	mediaReady := true
	if err := media.CheckDependencies(); err != nil {
		mediaReady = false
		log.Printf("[MAIN]: Media tools unavailable, analysis disabled: %v", err)
	}

	opts := orchestrator.Options{
		Store:     store,
		Scheduler: scheduler,
		Reporter:  report.NewBuilder(),
		BaseDir:   baseDir,
		Workers:   cfg.GetIntWithDefault("PIPELINE_WORKERS", orchestrator.DefaultWorkers),
	}
	if transcriber != nil {
		opts.Transcriber = transcriber
	}
	if mediaReady {
		opts.SpeechAnalyzer = analysis.NewSpeechAnalyzer()
		opts.VideoAnalyzer = analysis.NewVideoAnalyzer()
	}

	o, err := orchestrator.New(opts)
	if err != nil {
		log.Fatalf("[MAIN]: Failed to initialize orchestrator: %v", err)
	}

	// Periodic cleanup of abandoned sessions
	scheduleCleanup(cfg, o)

	userStore := users.NewStore(cfg.GetWithDefault("USERS_FILE", "users.json"))
	tokens := users.NewTokenIssuer(cfg.GetWithDefault("SECRET_KEY", "change-me-in-production"))

	// Start
	api.Start(cfg, api.Services{
		Orchestrator:      o,
		Pool:              pool,
		Users:             userStore,
		Tokens:            tokens,
		TranscriberLoaded: transcriber != nil,
		MediaToolsLoaded:  mediaReady,
	})
}

// splitKeys parses a comma separated credential list
func splitKeys(raw string) []string {
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// newSessionStore picks the gorm-backed store when a DSN is configured,
// falling back to the in-memory store with its disk mirror
func newSessionStore(cfg *utils.Config, baseDir string) session.Store {
	dsn := cfg.Get("DATABASE_DSN")
	if dsn == "" {
		return session.NewMemoryStore(baseDir)
	}

	store, err := session.NewGormStore(dsn)
	if err != nil {
		log.Fatalf("[MAIN]: Failed to connect to database: %v", err)
	}

	log.Print("[MAIN]: Using database-backed session store")
	return store
}

// scheduleCleanup registers the stale session sweep
func scheduleCleanup(cfg *utils.Config, o *orchestrator.Orchestrator) {
	maxAge := cfg.GetDuration("SESSION_TTL", orchestrator.DefaultSessionTTL)

	c := cron.New()
	if _, err := c.AddFunc(cfg.GetWithDefault("CLEANUP_SCHEDULE", "@hourly"), func() {
		if removed := o.CleanupStale(context.Background(), maxAge); removed > 0 {
			log.Printf("[MAIN]: Removed %d stale sessions", removed)
		}
	}); err != nil {
		log.Fatalf("[MAIN]: Failed to schedule session cleanup: %v", err)
	}
	c.Start()
}

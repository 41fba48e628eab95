package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chapterpoints/chapter-scoring/internal/config"
	"github.com/chapterpoints/chapter-scoring/internal/domain/draft"
	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	rcache "github.com/chapterpoints/chapter-scoring/internal/infrastructure/repository/cache"
	"github.com/chapterpoints/chapter-scoring/internal/infrastructure/repository/memory"
	"github.com/chapterpoints/chapter-scoring/internal/infrastructure/repository/postgres"
	"github.com/chapterpoints/chapter-scoring/internal/interfaces/httpapi"
	"github.com/chapterpoints/chapter-scoring/internal/platform/broadcast"
	basecache "github.com/chapterpoints/chapter-scoring/internal/platform/cache"
	idgen "github.com/chapterpoints/chapter-scoring/internal/platform/id"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
	"github.com/chapterpoints/chapter-scoring/internal/platform/reveal"
	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

type repositories struct {
	users    user.Repository
	teams    team.Repository
	seasons  season.Repository
	sessions session.Repository
	scores   score.Repository
	settings settings.Repository
	drafts   draft.Repository
}

// NewHTTPServer wires repositories, services, and the HTTP router into one
// server. The returned close func releases the database pool and must run
// after the server has shut down.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, closeRepos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.users = rcache.NewUserRepository(repos.users, store)
		repos.teams = rcache.NewTeamRepository(repos.teams, store)
		repos.seasons = rcache.NewSeasonRepository(repos.seasons, store)
		repos.settings = rcache.NewSettingsRepository(repos.settings, store)
		logger.Info("repository cache enabled", "ttl", cfg.CacheTTL)
	}

	displayChannel := broadcast.NewChannel()
	gate := reveal.NewGate(displayChannel)
	ids := idgen.NewRandomGenerator()

	leaderboardSvc := usecase.NewLeaderboardService(
		repos.users, repos.teams, repos.scores, repos.sessions, repos.seasons, repos.settings, gate, logger,
	)
	scoreSvc := usecase.NewScoreService(
		repos.scores, repos.sessions, repos.seasons, repos.settings, repos.users, ids, logger,
	)
	publishSvc := usecase.NewPublishService(repos.scores, repos.sessions, repos.teams, logger)
	revealSvc := usecase.NewRevealService(gate, logger)
	draftSvc := usecase.NewDraftService(
		repos.drafts, repos.seasons, repos.teams, repos.users, repos.sessions, repos.scores, ids, logger,
	)
	seasonSvc := usecase.NewSeasonService(repos.seasons, ids, logger)
	sessionSvc := usecase.NewSessionService(repos.sessions, repos.seasons, ids, logger)
	userSvc := usecase.NewUserService(repos.users, ids, logger)
	teamSvc := usecase.NewTeamService(repos.teams, repos.seasons, ids, logger)
	settingsSvc := usecase.NewSettingsService(repos.settings, logger)
	recalcSvc := usecase.NewRecalcService(repos.scores, repos.sessions, repos.seasons, repos.settings, logger)

	principals, err := httpapi.ParseStaticTokens(cfg.AuthStaticTokens)
	if err != nil {
		_ = closeRepos(context.Background())
		return nil, nil, fmt.Errorf("parse auth tokens: %w", err)
	}
	verifier := httpapi.NewStaticTokenVerifier(principals)

	handler := httpapi.NewHandler(
		leaderboardSvc,
		scoreSvc,
		publishSvc,
		revealSvc,
		draftSvc,
		seasonSvc,
		sessionSvc,
		userSvc,
		teamSvc,
		settingsSvc,
		recalcSvc,
		displayChannel,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = closeRepos(context.Background())
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, closeRepos, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, func(context.Context) error, error) {
	if cfg.UseMemoryRepositories() {
		logger.Info("using in-memory repositories", "seed_demo_data", cfg.SeedDemoData)
		return buildMemoryRepositories(cfg), func(context.Context) error { return nil }, nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return repositories{}, nil, err
	}
	logger.Info("using postgres repositories", "db_name", dbNameFromURL(cfg.DBURL))

	repos := repositories{
		users:    postgres.NewUserRepository(db),
		teams:    postgres.NewTeamRepository(db),
		seasons:  postgres.NewSeasonRepository(db),
		sessions: postgres.NewSessionRepository(db),
		scores:   postgres.NewScoreRepository(db),
		settings: postgres.NewSettingsRepository(db),
		drafts:   postgres.NewDraftRepository(db),
	}
	return repos, func(context.Context) error { return db.Close() }, nil
}

func buildMemoryRepositories(cfg config.Config) repositories {
	var (
		users    []user.User
		teams    []team.Team
		seasons  []season.Season
		sessions []session.Session
	)
	if cfg.SeedDemoData {
		users = memory.SeedUsers()
		teams = memory.SeedTeams()
		seasons = memory.SeedSeasons()
		sessions = memory.SeedSessions()
	}

	userRepo := memory.NewUserRepository(users)
	teamRepo := memory.NewTeamRepository(teams)

	settingsRepo := memory.NewSettingsRepository()
	if cfg.SeedDemoData {
		settingsRepo = memory.NewSettingsRepositoryWith(memory.SeedSettings())
	}

	return repositories{
		users:    userRepo,
		teams:    teamRepo,
		seasons:  memory.NewSeasonRepository(seasons),
		sessions: memory.NewSessionRepository(sessions),
		scores:   memory.NewScoreRepository(),
		settings: settingsRepo,
		drafts:   memory.NewDraftRepository(userRepo, teamRepo),
	}
}

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	opts := []otelsql.Option{
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	}
	if name := dbNameFromURL(cfg.DBURL); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dsn, opts...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

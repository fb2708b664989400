// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/aotapi"
	"github.com/titandle/titandle-backend/internal/cache"
	"github.com/titandle/titandle-backend/internal/config"
	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/http/handlers"
	"github.com/titandle/titandle-backend/internal/http/middleware"
	"github.com/titandle/titandle-backend/internal/repo"
	"github.com/titandle/titandle-backend/internal/services"
)

// charRepoShim adapts the repository free functions to the
// services.CharacterRepo interface expected by the CharacterService. This
// keeps services decoupled from the concrete repo package while reusing
// existing functions.
type charRepoShim struct{}

// GetCharacterByID proxies repo.GetCharacterByID.
func (charRepoShim) GetCharacterByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Character, error) {
	return repo.GetCharacterByID(ctx, db, id)
}

// GetCharacterByName proxies repo.GetCharacterByName.
func (charRepoShim) GetCharacterByName(ctx context.Context, db *gorm.DB, name string) (*domain.Character, error) {
	return repo.GetCharacterByName(ctx, db, name)
}

// CountCharacters proxies repo.CountCharacters.
func (charRepoShim) CountCharacters(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountCharacters(ctx, db)
}

// ListCharactersPage proxies repo.ListCharactersPage.
func (charRepoShim) ListCharactersPage(ctx context.Context, db *gorm.DB, desc bool, limit, offset int) ([]domain.Character, error) {
	return repo.ListCharactersPage(ctx, db, desc, limit, offset)
}

// LatestCharacter proxies repo.LatestCharacter.
func (charRepoShim) LatestCharacter(ctx context.Context, db *gorm.DB) (*domain.Character, error) {
	return repo.LatestCharacter(ctx, db)
}

// SearchCharactersLocal proxies repo.SearchCharactersLocal.
func (charRepoShim) SearchCharactersLocal(ctx context.Context, db *gorm.DB, name string) ([]domain.Character, error) {
	return repo.SearchCharactersLocal(ctx, db, name)
}

// CreateOrGetCharacterByName proxies repo.CreateOrGetCharacterByName.
func (charRepoShim) CreateOrGetCharacterByName(ctx context.Context, db *gorm.DB, c *domain.Character) (*domain.Character, bool, error) {
	return repo.CreateOrGetCharacterByName(ctx, db, c)
}

// CreateCharacter proxies repo.CreateCharacter.
func (charRepoShim) CreateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error {
	return repo.CreateCharacter(ctx, db, c)
}

// UpdateCharacter proxies repo.UpdateCharacter.
func (charRepoShim) UpdateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error {
	return repo.UpdateCharacter(ctx, db, c)
}

// DeleteCharacter proxies repo.DeleteCharacter.
func (charRepoShim) DeleteCharacter(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteCharacter(ctx, db, id)
}

// Ping proxies repo.Ping.
func (charRepoShim) Ping(ctx context.Context, db *gorm.DB) error {
	return repo.Ping(ctx, db)
}

// dailyRepoShim adapts the repository free functions to services.DailyRepo.
type dailyRepoShim struct{}

// GetDailyByDate proxies repo.GetDailyByDate.
func (dailyRepoShim) GetDailyByDate(ctx context.Context, db *gorm.DB, date string) (*domain.DailyCharacter, error) {
	return repo.GetDailyByDate(ctx, db, date)
}

// CreateDaily proxies repo.CreateDaily.
func (dailyRepoShim) CreateDaily(ctx context.Context, db *gorm.DB, characterID uint, date string) (*domain.DailyCharacter, error) {
	return repo.CreateDaily(ctx, db, characterID, date)
}

// ListDailyHistory proxies repo.ListDailyHistory.
func (dailyRepoShim) ListDailyHistory(ctx context.Context, db *gorm.DB, limit int) ([]domain.DailyCharacter, error) {
	return repo.ListDailyHistory(ctx, db, limit)
}

// SampleRandomCharacters proxies repo.SampleRandomCharacters.
func (dailyRepoShim) SampleRandomCharacters(ctx context.Context, db *gorm.DB, n int) ([]domain.Character, error) {
	return repo.SampleRandomCharacters(ctx, db, n)
}

// userRepoShim adapts the repository free functions to services.UserRepo.
type userRepoShim struct{}

// CreateUser proxies repo.CreateUser.
func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

// GetUserByID proxies repo.GetUserByID.
func (userRepoShim) GetUserByID(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUserByID(ctx, db, id)
}

// GetUserByLogin proxies repo.GetUserByLogin.
func (userRepoShim) GetUserByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.User, error) {
	return repo.GetUserByLogin(ctx, db, login)
}

// TouchUserLogin proxies repo.TouchUserLogin.
func (userRepoShim) TouchUserLogin(ctx context.Context, db *gorm.DB, id uint, apiToken string, at time.Time) error {
	return repo.TouchUserLogin(ctx, db, id, apiToken, at)
}

// ClearUserAPIToken proxies repo.ClearUserAPIToken.
func (userRepoShim) ClearUserAPIToken(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.ClearUserAPIToken(ctx, db, id)
}

// sessionRepoShim adapts the repository free functions to services.SessionRepo.
type sessionRepoShim struct{}

// CreateSession proxies repo.CreateSession.
func (sessionRepoShim) CreateSession(ctx context.Context, db *gorm.DB, player string, characterID uint, startedAt time.Time) (*domain.GameSession, error) {
	return repo.CreateSession(ctx, db, player, characterID, startedAt)
}

// GetSession proxies repo.GetSession.
func (sessionRepoShim) GetSession(ctx context.Context, db *gorm.DB, id uint) (*domain.GameSession, error) {
	return repo.GetSession(ctx, db, id)
}

// FinishSession proxies repo.FinishSession.
func (sessionRepoShim) FinishSession(ctx context.Context, db *gorm.DB, id uint, endedAt time.Time, durationSeconds int, won bool) error {
	return repo.FinishSession(ctx, db, id, endedAt, durationSeconds, won)
}

// Leaderboard proxies repo.Leaderboard.
func (sessionRepoShim) Leaderboard(ctx context.Context, db *gorm.DB, limit int) ([]domain.GameSession, error) {
	return repo.Leaderboard(ctx, db, limit)
}

// quizRepoShim adapts the repository free functions to services.QuizRepo.
type quizRepoShim struct{}

func (quizRepoShim) CreateQuiz(ctx context.Context, db *gorm.DB, q *domain.Quiz) error {
	return repo.CreateQuiz(ctx, db, q)
}

func (quizRepoShim) GetQuiz(ctx context.Context, db *gorm.DB, id uint) (*domain.Quiz, error) {
	return repo.GetQuiz(ctx, db, id)
}

func (quizRepoShim) ListQuizzes(ctx context.Context, db *gorm.DB) ([]domain.Quiz, error) {
	return repo.ListQuizzes(ctx, db)
}

func (quizRepoShim) AttachQuestion(ctx context.Context, db *gorm.DB, quizID, questionID uint) error {
	return repo.AttachQuestion(ctx, db, quizID, questionID)
}

func (quizRepoShim) DetachQuestion(ctx context.Context, db *gorm.DB, quizID, questionID uint) error {
	return repo.DetachQuestion(ctx, db, quizID, questionID)
}

func (quizRepoShim) CreateQuestion(ctx context.Context, db *gorm.DB, q *domain.Question) error {
	return repo.CreateQuestion(ctx, db, q)
}

func (quizRepoShim) GetQuestion(ctx context.Context, db *gorm.DB, id uint) (*domain.Question, error) {
	return repo.GetQuestion(ctx, db, id)
}

func (quizRepoShim) ListQuestions(ctx context.Context, db *gorm.DB) ([]domain.Question, error) {
	return repo.ListQuestions(ctx, db)
}

func (quizRepoShim) DeleteQuestion(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteQuestion(ctx, db, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS, security headers, gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, store cache.Store, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Bearer tokens, cookies, and
	// idempotency keys are masked by default; password-bearing query
	// params are scrubbed.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Compress responses (character lists are large and very cacheable)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (off by default; serves the committed docs package)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/cache/catalog
	catalog := aotapi.New(cfg.AOT, log.Logger)
	charSvc := services.NewCharacterService(
		db, charRepoShim{}, catalog, store,
		cfg.AOT.MaxCharacterID,
		cfg.Cache.RandomTTL, cfg.Cache.SearchTTL, cfg.Cache.ListTTL,
		log.Logger,
	)
	dailySvc := services.NewDailyService(db, dailyRepoShim{}, charSvc, store, cfg.Cache.DailyTTL, log.Logger)
	sessSvc := services.NewSessionService(db, sessionRepoShim{}, dailySvc, charSvc, log.Logger)
	authSvc := services.NewAuthService(db, userRepoShim{}, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL, log.Logger)
	quizSvc := services.NewQuizService(db, quizRepoShim{})

	h := handlers.New(charSvc, dailySvc, sessSvc, authSvc, quizSvc)
	authed := middleware.RequireAuth(authSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Auth
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/me", authed, h.Me)
		api.POST("/auth/logout", authed, h.Logout)

		// Characters
		api.GET("/characters", h.ListCharacters)
		api.POST("/characters", h.CreateCharacter)
		api.GET("/characters/search", h.SearchCharacters)
		api.GET("/characters/random", h.RandomCharacter)
		api.GET("/characters/daily", h.DailyCharacter)
		api.GET("/characters/daily/history", h.DailyHistory)
		api.GET("/characters/:id", h.GetCharacter)
		api.PUT("/characters/:id", h.UpdateCharacter)
		api.DELETE("/characters/:id", h.DeleteCharacter)

		// Game sessions
		api.POST("/game-sessions", h.StartSession)
		api.GET("/game-sessions/leaderboard", h.Leaderboard)
		api.GET("/game-sessions/:id", h.GetSession)
		api.POST("/game-sessions/:id/end", h.EndSession)
		api.POST("/game-sessions/:id/guess", h.GuessInSession)

		// Stateless guess
		api.POST("/guess", h.StatelessGuess)

		// Quizzes
		api.GET("/quizzes", h.ListQuizzes)
		api.POST("/quizzes", h.CreateQuiz)
		api.GET("/quizzes/:id", h.GetQuiz)
		api.POST("/quizzes/:id/add-question/:questionId", h.AttachQuestion)
		api.POST("/quizzes/:id/remove-question/:questionId", h.DetachQuestion)

		// Questions
		api.GET("/questions", h.ListQuestions)
		api.POST("/questions", h.CreateQuestion)
		api.GET("/questions/:id", h.GetQuestion)
		api.DELETE("/questions/:id", h.DeleteQuestion)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	googleauth "coach-backend/internal/auth"
	"coach-backend/internal/billing"
	"coach-backend/internal/coach"
	"coach-backend/internal/credits"
	"coach-backend/internal/dashboard"
	"coach-backend/internal/interviews"
	"coach-backend/internal/llm"
	openai "coach-backend/internal/llm/openai"
	"coach-backend/internal/missions"
	"coach-backend/internal/queue"
	"coach-backend/internal/resumes"
	"coach-backend/internal/shared/config"
	"coach-backend/internal/shared/server"
	"coach-backend/internal/shared/storage/db"
	"coach-backend/internal/shared/storage/object"
	localstore "coach-backend/internal/shared/storage/object/local"
	s3store "coach-backend/internal/shared/storage/object/s3"
	"coach-backend/internal/speech"
	"coach-backend/internal/users"
)

const defaultRedisURL = "redis://localhost:6379"

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Redis  *redis.Client
	Store  object.ObjectStore
	Queue  queue.Client

	UsersRepo    users.Repo
	MissionsRepo missions.Repo
	SessionsRepo interviews.Repo
	ResultsRepo  interviews.ResultsRepo
	DraftsRepo   resumes.DraftRepo
	ScoresRepo   resumes.ScoresRepo
	TasksRepo    dashboard.TasksRepo

	UsersService     *users.Service
	CreditsService   *credits.Service
	InterviewService *interviews.Service
	ResumesService   *resumes.Service
	DashboardService *dashboard.Service
	CoachService     *coach.Service

	UsersHandler     *users.Handler
	CreditsHandler   *credits.Handler
	MissionsHandler  *missions.Handler
	InterviewHandler *interviews.Handler
	ResumesHandler   *resumes.Handler
	DashboardHandler *dashboard.Handler
	CoachHandler     *coach.Handler
	BillingHandler   *billing.Handler
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := buildRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Redis:  redisClient,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		UsersHandler:     app.UsersHandler,
		CreditsHandler:   app.CreditsHandler,
		MissionsHandler:  app.MissionsHandler,
		InterviewHandler: app.InterviewHandler,
		ResumesHandler:   app.ResumesHandler,
		DashboardHandler: app.DashboardHandler,
		CoachHandler:     app.CoachHandler,
		BillingHandler:   app.BillingHandler,
		GoogleAuth:       app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			sqlDB.Close()
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// buildRedis always returns a client: interview sessions have no in-memory
// fallback. An unreachable server is logged, not fatal, so the API can come
// up while redis restarts.
func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		if !isDevLike(cfg.Env) {
			return nil, fmt.Errorf("REDIS_URL is required")
		}
		redisURL = defaultRedisURL
		log.Printf("bootstrap: REDIS_URL empty; defaulting to %s", redisURL)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("bootstrap: redis ping failed: %v", err)
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("CC_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var userRepo users.Repo
	var resultsRepo interviews.ResultsRepo
	var draftsRepo resumes.DraftRepo
	var scoresRepo resumes.ScoresRepo
	var tasksRepo dashboard.TasksRepo
	var creditsSvc *credits.Service

	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		resultsRepo = &interviews.PGResultsRepo{DB: app.DB}
		draftsRepo = &resumes.PGDraftRepo{DB: app.DB}
		scoresRepo = &resumes.PGScoresRepo{DB: app.DB}
		tasksRepo = &dashboard.PGTasksRepo{DB: app.DB}
		creditsSvc = credits.NewPostgresService(credits.NewPGStore(app.DB))
	} else {
		userRepo = users.NewMemoryRepo()
		resultsRepo = interviews.NewMemoryResultsRepo()
		draftsRepo = resumes.NewMemoryDraftRepo()
		scoresRepo = resumes.NewMemoryScoresRepo()
		tasksRepo = dashboard.NewMemoryTasksRepo()
		creditsSvc = credits.NewService()
	}

	missionsRepo := missions.NewRedisRepo(app.Redis)
	sessionsRepo := interviews.NewRedisRepo(app.Redis)

	llmClient := llm.Client(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "openai" {
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			if !isDevLike(app.Config.Env) {
				return err
			}
			log.Printf("bootstrap: openai client unavailable; using placeholder: %v", err)
		} else {
			llmClient = client
		}
	}

	speechClient := speech.Client(speech.PlaceholderClient{})
	if strings.TrimSpace(app.Config.SpeechBaseURL) != "" {
		client, err := speech.NewHTTPClient(app.Config.SpeechBaseURL, os.Getenv("SPEECH_API_KEY"))
		if err != nil {
			return err
		}
		speechClient = client
	}

	userSvc := users.NewService(userRepo)
	resumesSvc := resumes.NewService(draftsRepo, scoresRepo)
	resumesSvc.Store = app.Store

	interviewSvc := &interviews.Service{
		Repo:     sessionsRepo,
		Results:  resultsRepo,
		Credits:  creditsSvc,
		LLM:      llmClient,
		Speech:   speechClient,
		Queue:    app.Queue,
		Missions: missionsRepo,
		Store:    app.Store,
		Voice:    app.Config.SpeechVoice,
	}

	dashboardSvc := &dashboard.Service{
		Scores:  scoresRepo,
		Results: resultsRepo,
		Tasks:   tasksRepo,
		Credits: creditsSvc,
	}

	coachSvc := &coach.Service{
		LLM:      llmClient,
		Speech:   speechClient,
		Credits:  creditsSvc,
		Resumes:  resumesSvc,
		Missions: missionsRepo,
	}

	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	var billingHandler *billing.Handler
	if strings.TrimSpace(app.Config.StripeSecretKey) != "" {
		successURL := getenvDefault("CC_STRIPE_SUCCESS_URL", app.Config.UIRedirectURL)
		cancelURL := getenvDefault("CC_STRIPE_CANCEL_URL", app.Config.UIRedirectURL)
		billingHandler = billing.NewHandler(
			billing.NewStripeClient(app.Config.StripeSecretKey),
			successURL,
			cancelURL,
			app.Config.BillingPortalConfigID,
		)
	}

	app.UsersRepo = userRepo
	app.MissionsRepo = missionsRepo
	app.SessionsRepo = sessionsRepo
	app.ResultsRepo = resultsRepo
	app.DraftsRepo = draftsRepo
	app.ScoresRepo = scoresRepo
	app.TasksRepo = tasksRepo

	app.UsersService = userSvc
	app.CreditsService = creditsSvc
	app.InterviewService = interviewSvc
	app.ResumesService = resumesSvc
	app.DashboardService = dashboardSvc
	app.CoachService = coachSvc

	app.UsersHandler = users.NewHandler(userSvc, creditsSvc)
	app.CreditsHandler = credits.NewHandler(creditsSvc)
	app.MissionsHandler = missions.NewHandler(missionsRepo)
	app.InterviewHandler = interviews.NewHandler(interviewSvc, speechClient)
	app.ResumesHandler = resumes.NewHandler(resumesSvc)
	app.DashboardHandler = dashboard.NewHandler(dashboardSvc)
	app.CoachHandler = coach.NewHandler(coachSvc)
	app.BillingHandler = billingHandler
	app.GoogleAuth = googleAuthSvc

	return nil
}

func getenvDefault(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

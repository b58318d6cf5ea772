package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cybercell/complaint-portal-api/api"
	"github.com/cybercell/complaint-portal-api/config"
	"github.com/cybercell/complaint-portal-api/databases"
	"github.com/cybercell/complaint-portal-api/databases/memory"
	"github.com/cybercell/complaint-portal-api/models"
	"github.com/cybercell/complaint-portal-api/notify"
	"github.com/cybercell/complaint-portal-api/services"
)

// MemoryURI selects the in-process store instead of mongo
const MemoryURI = "memory://"

// App stores the router and the stores behind it, so it can be reused
type App struct {
	Router *mux.Router
	Config config.Config

	Cases     databases.CaseDatabase
	Locations databases.VisitorLocationDatabase
	Users     databases.UserDatabase
	Limiter   api.Limiter
	Notifier  services.Notifier

	client databases.ClientHelper
	redis  *redis.Client
}

// New creates a new mux router and all the routes. Stores that were not set by
// Initialize fall back to empty in-memory ones.
func (a *App) New() *mux.Router {
	if a.Cases == nil {
		a.Cases = memory.NewCaseDatabase()
	}
	if a.Locations == nil {
		a.Locations = memory.NewVisitorLocationDatabase()
	}
	if a.Users == nil {
		a.Users = memory.NewUserDatabase()
	}
	if a.Limiter == nil && a.Config.RateLimit > 0 {
		a.Limiter = api.NewMemoryLimiter(a.Config.RateLimit, a.Config.RateWindow)
	}

	prefix := a.Config.CaseIDPrefix
	if prefix == "" {
		prefix = "CYB"
	}
	sessions := services.NewSessionIssuer(a.Config.JWTSecret, a.Config.JWTTTL)
	sessionAuth := api.NewSessionAuth(sessions)

	c := Case{Manager: services.NewCaseManager(
		a.Cases,
		services.NewIDGenerator(prefix),
		services.NewSharedSecret(a.Config.AdminPassword),
		a.Notifier,
	)}
	l := Location{Service: services.NewLocationService(a.Locations)}
	acc := Account{
		Service:      services.NewAccountService(a.Users, sessions),
		SecureCookie: a.Config.Env == "production",
	}
	e := Evidence{
		CloudName:    a.Config.CloudinaryCloudName,
		APIKey:       a.Config.CloudinaryAPIKey,
		APISecret:    a.Config.CloudinaryAPISecret,
		UploadPreset: a.Config.CloudinaryUploadPreset,
	}

	r := mux.NewRouter()
	r.Use(api.RequestLogger)
	if a.Config.RequestTimeout > 0 {
		r.Use(api.TimeoutMiddleware(a.Config.RequestTimeout))
	}
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/cases", a.limited("cases", c.CreateCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases", http.HandlerFunc(c.CaseHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", http.HandlerFunc(c.CaseByIDHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", http.HandlerFunc(c.UpdateCaseHandler)).Methods("PATCH")

	apiCreate.Handle("/locations", a.limited("locations", l.CreateLocationHandler)).Methods("POST")
	apiCreate.Handle("/locations", http.HandlerFunc(l.LocationHandler)).Methods("GET")

	apiCreate.Handle("/auth/register", a.limited("auth", acc.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", a.limited("auth", acc.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/me", sessionAuth.Middleware(http.HandlerFunc(acc.ProfileHandler))).Methods("GET")

	apiCreate.Handle("/evidence/signature", a.limited("evidence", e.GenerateSignature)).Methods("POST")

	return r
}

func (a *App) limited(route string, h http.HandlerFunc) http.Handler {
	if a.Limiter == nil {
		return h
	}
	return api.RateLimit(a.Limiter, route, a.Config.TrustedProxies)(h)
}

// Initialize is invoked by main to connect the stores and create a router
func (a *App) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.initializeStores(ctx); err != nil {
		return err
	}

	if a.Config.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			zap.S().Errorw("failed to ping redis", "error", err)
			return err
		}
		a.Limiter = api.NewRedisLimiter(a.redis, a.Config.RateLimit, a.Config.RateWindow)
		zap.S().Infow("rate limiting through redis", "addr", a.Config.RedisAddr)
	}

	if a.Config.SendGridAPIKey != "" {
		a.Notifier = notify.NewMailer(a.Config.SendGridAPIKey, a.Config.MailFrom, a.Config.BaseURL)
	}

	a.initializeRoutes()
	return nil
}

func (a *App) initializeStores(ctx context.Context) error {
	if a.Config.URL == "" || strings.HasPrefix(a.Config.URL, MemoryURI) {
		zap.S().Warn("DB_URI not set to mongo, records are kept in memory only")
		a.Cases = memory.NewCaseDatabase()
		a.Locations = memory.NewVisitorLocationDatabase()
		a.Users = memory.NewUserDatabase()
		return nil
	}

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	a.client = client
	zap.S().Info("complaint-portal-api has connected to the database")

	db := databases.NewDatabase(&a.Config, client)
	cases := databases.NewCaseDatabase(db)
	locations := databases.NewVisitorLocationDatabase(db)
	users := databases.NewUserDatabase(db)
	for name, ensure := range map[string]func(context.Context) error{
		"cases":            cases.EnsureIndexes,
		"visitorlocations": locations.EnsureIndexes,
		"users":            users.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			zap.S().Errorw("failed to create indexes", "collection", name, "error", err)
			return err
		}
	}

	a.Cases, a.Locations, a.Users = cases, locations, users
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// RedisClient is the connected redis client, or nil when REDIS_ADDR is unset
func (a *App) RedisClient() *redis.Client {
	return a.redis
}

// Close releases the database and redis connections
func (a *App) Close(ctx context.Context) {
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.S().Warnw("failed to close redis", "error", err)
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthCheckResponse{Alive: true})
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found"})
}

package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/rootsarchive/heritage-archive/internal/config"
	"github.com/rootsarchive/heritage-archive/internal/database"
	"github.com/rootsarchive/heritage-archive/internal/handler"
	"github.com/rootsarchive/heritage-archive/internal/httperr"
	custommw "github.com/rootsarchive/heritage-archive/internal/middleware"
	"github.com/rootsarchive/heritage-archive/internal/queue"
	"github.com/rootsarchive/heritage-archive/internal/rbac"
	"github.com/rootsarchive/heritage-archive/internal/repository"
	"github.com/rootsarchive/heritage-archive/internal/router"
	queue_publisher "github.com/rootsarchive/heritage-archive/internal/service"
)

// signupRoleName is the role granted to self-registered accounts. It must
// exist in the seeded roles table.
const signupRoleName = "member"

func main() {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	resets := repository.NewResetRepo(db)
	roles := repository.NewRoleRepo(db)
	activity := repository.NewActivityRepo(db)

	// The role table is read once and frozen; permission checks on the
	// request path are in-memory lookups from here on.
	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	roleRows, err := roles.All(bootCtx)
	cancel()
	if err != nil {
		log.Fatalf("load roles: %v", err)
	}
	table := rbac.New(roleRows)
	signupRole, ok := table.IDByName(signupRoleName)
	if !ok {
		log.Fatalf("roles table is missing the %q role", signupRoleName)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response caching disabled")
	}
	limiter := custommw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := custommw.NewRedisCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens, resets, queue_publisher.PublishAuthEvent, signupRole)
	adminH := handler.NewAdminHandler(users, tokens, activity, queue_publisher.PublishAuthEvent)
	rolesH := handler.NewRolesHandler(table)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httperr.Handler

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret, table)
	router.RegisterRoles(e, rolesH, cfg.JWTSecret, cache)

	// Audit trail consumer; reconnects on its own, never takes the API down.
	go func() {
		if err := queue.StartAuthConsumer(activity); err != nil {
			log.Printf("auth-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	miniusers "github.com/MarxWellB/miniusers"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// no storage, no server
	if cfg.DSN == "" {
		log.Fatal("missing sqlite DSN: set -dsn or SQLITE_DSN")
	}

	if cfg.SigningKey == "devsecret" {
		log.Println("WARNING: using the default signing secret, set JWT_SECRET in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := miniusers.CreateSchema(ctx, db); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	store := miniusers.NewSQLStore(db)

	if cfg.Seed {
		if err := seedDemoUser(ctx, store); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	auther := miniusers.NewAuthenticator(store, cfg)
	directory := miniusers.NewDirectory(store)

	app := fiber.New(fiber.Config{
		AppName:      "miniusers",
		ErrorHandler: miniusers.APIErrorHandler(nil),
	})
	app.Use(cors.New())

	controller := miniusers.NewAPIController(auther, directory,
		miniusers.WithControllerDebug(cfg.Debug),
	)
	miniusers.RegisterAPIRoutes(app, controller)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("API running on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

// seedDemoUser creates the demo login used by local development.
func seedDemoUser(ctx context.Context, store miniusers.CredentialStore) error {
	existing, err := store.FindByEmail(ctx, "demo@mail.com")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := miniusers.HashPassword("demo123")
	if err != nil {
		return err
	}

	_, err = store.Insert(ctx, &miniusers.User{
		Name:         "Demo User",
		Email:        "demo@mail.com",
		Role:         miniusers.RoleAdmin,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	log.Println("seeded demo user demo@mail.com")
	return nil
}

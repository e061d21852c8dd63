package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/todo-webapp/internal/auth"
	"github.com/ayush/todo-webapp/internal/config"
	"github.com/ayush/todo-webapp/internal/middleware"
	"github.com/ayush/todo-webapp/internal/store"
	"github.com/ayush/todo-webapp/internal/todo"
	"github.com/ayush/todo-webapp/internal/web"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()

	// ── Auth ─────────────────────────────────────────────────
	sessions := auth.NewRedisCarrier(rdb)
	cookies := auth.NewCookieCodec(cfg.SessionSecret)
	strategy := auth.NewLocalStrategy(pgStore)
	if err := seedAdmin(ctx, cfg, pgStore); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// ── Views ────────────────────────────────────────────────
	views := web.NewTemplateRenderer()
	respond := web.NewResponder(views)

	// ── Handlers ─────────────────────────────────────────────
	todoSvc := todo.NewService(pgStore)
	todoHandler := todo.NewHandler(todoSvc, sessions, views)
	authHandler := auth.NewHandler(pgStore, strategy, sessions, cookies, views, todoSvc)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.WithSession(sessions, cookies, strategy))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes
	r.Get("/", respond.Handle(todoHandler.Home))
	r.Get("/register", respond.Handle(authHandler.ShowRegister))
	r.Post("/register", respond.Handle(authHandler.Register))
	r.Get("/login", respond.Handle(authHandler.ShowLogin))
	r.Post("/login", respond.Handle(authHandler.Login))
	r.Get("/logout", respond.Handle(authHandler.Logout))

	// Todo routes (authenticated)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(respond))
		r.Get("/create", respond.Handle(todoHandler.ShowCreate))
		r.Post("/create", respond.Handle(todoHandler.Create))
		r.Get("/edit/{id}", respond.Handle(todoHandler.ShowEdit))
		r.Post("/edit/{id}", respond.Handle(todoHandler.Edit))
		r.Get("/delete/{id}", respond.Handle(todoHandler.Delete))
	})

	// User management (admin only)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(sessions, cookies, respond))
		r.Get("/users", respond.Handle(authHandler.Users))
		r.Get("/users/delete/{id}", respond.Handle(authHandler.DeleteUser))
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}

// seedAdmin ensures the configured admin account exists. Registration
// only ever creates non-admin users, so the admin comes from config.
func seedAdmin(ctx context.Context, cfg *config.Config, users auth.UserStore) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := users.GetUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := auth.Hasher{}.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}
	_, err = users.CreateUser(ctx, cfg.AdminUsername, hash, true)
	return err
}

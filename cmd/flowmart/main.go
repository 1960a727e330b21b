package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/soochol/flowmart/internal/api"
	"github.com/soochol/flowmart/internal/auth"
	"github.com/soochol/flowmart/internal/config"
	"github.com/soochol/flowmart/internal/crypto"
	"github.com/soochol/flowmart/internal/db"
	"github.com/soochol/flowmart/internal/gateway"
	"github.com/soochol/flowmart/internal/generate"
	"github.com/soochol/flowmart/internal/model"
	"github.com/soochol/flowmart/internal/repository"
	"github.com/soochol/flowmart/internal/services"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			serve()
			return
		case "token":
			issueToken(os.Args[2:])
			return
		}
	}
	fmt.Println("flowmart v0.1.0")
	fmt.Println("Usage: flowmart serve")
	fmt.Println("       flowmart token <user-id> [email]")
}

func loadConfig() *config.Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env", "err", err)
	}
	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	return cfg
}

func serve() {
	cfg := loadConfig()
	ctx := context.Background()

	key, err := crypto.ParseKey(cfg.Crypto.Key)
	if err != nil {
		slog.Error("crypto key error", "err", err)
		os.Exit(1)
	}
	if key == nil {
		slog.Warn("no encryption key configured, credentials are stored unencrypted")
	}
	enc, err := crypto.NewEncryptor(key)
	if err != nil {
		slog.Error("crypto error", "err", err)
		os.Exit(1)
	}

	var credRepo repository.CredentialRepository = repository.NewMemoryCredentialRepository()
	if cfg.Database.URL != "" {
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			slog.Error("database error", "err", err)
			os.Exit(1)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			slog.Error("migration error", "err", err)
			os.Exit(1)
		}
		credRepo = repository.NewPersistentCredentialRepository(database)
		slog.Info("using postgres credential store")
	}
	credSvc := services.NewCredentialService(credRepo, enc)

	var authn auth.Authenticator
	if cfg.Auth.JWTSecret != "" {
		authn = auth.NewJWTAuthenticator([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer)
	} else {
		slog.Warn("no JWT secret configured, authenticated endpoints will answer 401")
	}

	gw := gateway.New(credSvc, gateway.NewForwarder(nil, cfg.Gateway.WebhookTimeout))
	srv := api.NewServer(gw, credSvc, authn)
	srv.SetAllowedOrigins(cfg.CORS.AllowedOrigins)
	srv.SetMaxUploadBytes(cfg.Gateway.MaxUploadBytes)

	if gen := buildGenerator(cfg); gen != nil {
		srv.SetGenerator(gen)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("starting flowmart server", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

// buildGenerator picks the configured provider, or the first one that
// builds. It returns nil when no provider is available.
func buildGenerator(cfg *config.Config) *generate.Generator {
	names := slices.Sorted(maps.Keys(cfg.Providers))
	if cfg.Generate.Provider != "" {
		names = []string{cfg.Generate.Provider}
	}
	for _, name := range names {
		pc, ok := cfg.Providers[name]
		if !ok {
			slog.Warn("generate provider not configured", "provider", name)
			continue
		}
		llm, ok := model.BuildLLM(name, pc)
		if !ok {
			slog.Warn("unknown provider type", "provider", name, "type", pc.Type)
			continue
		}
		modelName := cfg.Generate.Model
		if modelName == "" {
			modelName = model.DefaultModel(pc.Type)
		}
		slog.Info("content generation enabled", "provider", name, "model", modelName)
		return generate.New(llm, modelName, generate.WithTimeout(cfg.Generate.Timeout))
	}
	slog.Warn("no LLM provider configured, listing content falls back to defaults")
	return nil
}

// issueToken prints a bearer token for local testing.
func issueToken(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: flowmart token <user-id> [email]")
		os.Exit(2)
	}
	cfg := loadConfig()
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	email := ""
	if len(args) > 1 {
		email = args[1]
	}
	token, err := auth.NewJWTAuthenticator([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer).Issue(args[0], email, 24*time.Hour)
	if err != nil {
		slog.Error("issue token", "err", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

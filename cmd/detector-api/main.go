// Command detector-api runs the authentication and AI-image-detection API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aidetectsai/detector-api/auth"
	"github.com/aidetectsai/detector-api/auth/provision"
	"github.com/aidetectsai/detector-api/config"
	"github.com/aidetectsai/detector-api/database"
	"github.com/aidetectsai/detector-api/detector"
	"github.com/aidetectsai/detector-api/logger"
	"github.com/aidetectsai/detector-api/server"
	"github.com/aidetectsai/detector-api/version"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, "detector-api:", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	log.Info("starting", map[string]interface{}{
		"name": cfg.Name, "build": version.Short(), "environment": cfg.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	users := database.NewUserStore(db)
	roles := database.NewRoleStore(db)
	if err := seedRoles(ctx, roles); err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(users, roles, auth.NewHasher(), tokens)

	github, err := provision.NewGitHubClient(cfg.OAuth.GitHub)
	if err != nil {
		return err
	}
	provisioner := provision.NewService(users, roles, github)

	detectSvc, err := detector.NewService(cfg.Detector)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, log)
	srv.RegisterRoutes(server.Handlers{
		Auth:   server.NewAuthHandler(authSvc, provisioner, tokens),
		Detect: server.NewDetectHandler(detectSvc),
		Tokens: tokens,
	})

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	return srv.Stop(context.Background())
}

// seedRoles makes sure the well-known roles exist before the API accepts
// registrations.
func seedRoles(ctx context.Context, roles *database.RoleStore) error {
	for _, name := range []string{auth.DefaultRole, auth.AdminRole} {
		if _, err := roles.Ensure(ctx, name); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

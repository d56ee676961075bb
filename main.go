// Package main provides the entry point of the Tsukuyomi back office service
//
// @title Tsukuyomi API
// @version 1.0
// @description Back office API for events, users, tags and regions
// @BasePath /
// @securityDefinitions.apikey TokenAuth
// @in header
// @name Authorization
// @description Token <token> as returned by sign in
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer <admin access token>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	businessflow "github.com/amirphl/Tsukuyomi/business_flow"
	"github.com/amirphl/Tsukuyomi/config"
	_ "github.com/amirphl/Tsukuyomi/docs"
	"github.com/amirphl/Tsukuyomi/migrations"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/amirphl/Tsukuyomi/repository"
	"github.com/amirphl/Tsukuyomi/utils"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tsukuyomi",
		Short:         "Back office service for events, users, tags and regions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newAdminCmd())
	return root
}

// loadRuntime reads the configuration and builds the process logger
func loadRuntime() (*config.ProductionConfig, zerolog.Logger, error) {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, _ := config.NewLogger(cfg.Logging)
	return cfg, logger, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadProductionConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, sink := config.NewLogger(cfg.Logging)

			if cfg.Database.AutoMigrate {
				if err := migrations.Up(cfg.Database.URL(), logger); err != nil {
					return err
				}
			}

			app, err := initializeApplication(cfg, logger, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.run(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			return migrations.Up(cfg.Database.URL(), logger)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			status, err := migrations.CurrentStatus(cfg.Database.URL(), logger)
			if err != nil {
				return err
			}
			if !status.Applied {
				cmd.Println("no migrations applied")
				return nil
			}
			cmd.Printf("version %d (dirty: %t)\n", status.Version, status.Dirty)
			return nil
		},
	})

	return migrateCmd
}

func newAdminCmd() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage back office administrators",
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a confirmed user with the admin role, or grant the role to an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			db, err := initializeDatabase(cfg.Database, logger)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			user, err := ensureAdmin(cmd.Context(), repository.NewUserRepository(db), cfg.Security, email, password)
			if err != nil {
				return err
			}
			cmd.Printf("admin %s (%s) ready\n", user.Email, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "admin email")
	create.Flags().StringVar(&password, "password", "", "admin password (new users only)")
	_ = create.MarkFlagRequired("email")

	adminCmd.AddCommand(create)
	return adminCmd
}

// ensureAdmin grants the admin role to the user with email, creating the user when missing
func ensureAdmin(ctx context.Context, users repository.UserRepository, security config.SecurityConfig, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := users.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user != nil {
		if user.HasRole(models.RoleAdmin) {
			return user, nil
		}
		roles := append([]string{}, user.Roles...)
		roles = append(roles, models.RoleAdmin)
		if err := users.Update(ctx, user.ID, map[string]any{"roles": pq.StringArray(roles)}); err != nil {
			return nil, err
		}
		user.Roles = roles
		return user, nil
	}

	if password == "" {
		return nil, errors.New("--password is required when creating a new admin")
	}
	if fe := businessflow.CheckPasswordPolicy(password, security); len(fe) > 0 {
		return nil, fe
	}
	hash, err := businessflow.HashPassword(password, security.BcryptCost)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Email:             email,
		EncryptedPassword: hash,
		ConfirmedAt:       utils.UTCNowPtr(),
		TimeZone:          models.TimeZoneCentral,
		Locale:            models.LocaleEN,
		Roles:             pq.StringArray{models.RoleAdmin},
	}
	if fe := models.ValidateUser(user); len(fe) > 0 {
		return nil, fe
	}
	if err := users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/gymledger/internal/config"
	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/middleware"
	"github.com/mansoorceksport/gymledger/internal/repository"
	"github.com/mansoorceksport/gymledger/internal/service"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gymctl",
		Short: "Maintenance commands for the GymLedger service",
		Long: `gymctl runs one-off tasks against the configured MongoDB.
Configuration is read from the environment (and .env) like the server.

Examples:
  gymctl token --user desk-1 --email desk@gym.test --role staff
  gymctl seed-activities
  gymctl run-notifications`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(tokenCommand(), seedActivitiesCommand(), runNotificationsCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func tokenCommand() *cobra.Command {
	var userID, email, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a staff JWT for the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if role != domain.RoleAdmin && role != domain.RoleStaff {
				return fmt.Errorf("role must be %s or %s", domain.RoleAdmin, domain.RoleStaff)
			}

			now := time.Now()
			token, err := middleware.IssueStaffToken(cfg.JWT.Secret, domain.StaffClaims{
				UserID: userID,
				Email:  email,
				Roles:  []string{role},
				RegisteredClaims: jwt.RegisteredClaims{
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
				},
			})
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Staff user ID (required)")
	cmd.Flags().StringVar(&email, "email", "", "Staff email")
	cmd.Flags().StringVar(&role, "role", domain.RoleStaff, "Role: admin or staff")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func seedActivitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-activities",
		Short: "Create the default activity catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			_, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Client().Disconnect(context.Background())

			repo := repository.NewMongoActivityRepository(db)
			activities := []domain.Activity{
				{Name: "Musculación", Category: domain.CategoryStrength, Price: 17000},
				{Name: "Funcional", Category: domain.CategoryClass, Price: 15000},
				{Name: "Spinning", Category: domain.CategoryClass, Price: 15000},
				{Name: "Yoga", Category: domain.CategoryClass, Price: 14000},
				{Name: "Boxeo", Category: domain.CategoryClass, Price: 16000},
			}

			for _, a := range activities {
				a.Available = true
				if err := repo.Create(ctx, &a); err != nil {
					if errors.Is(err, domain.ErrDuplicate) {
						fmt.Printf("Skipping duplicate: %s\n", a.Name)
						continue
					}
					return fmt.Errorf("creating %s: %w", a.Name, err)
				}
				fmt.Printf("Created: %s\n", a.Name)
			}
			fmt.Println("Seeding Activities Complete.")
			return nil
		},
	}
}

func runNotificationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-notifications",
		Short: "Run the daily notification job once and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			cfg, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Client().Disconnect(context.Background())

			job := service.NewNotificationJob(
				repository.NewMongoMemberRepository(db),
				repository.NewMongoNotificationRepository(db),
				nil,
				nil,
				service.Rules{
					Location: cfg.Location(),
					Pricing: domain.PlanPricing{
						BasePrice:      cfg.Gym.BasePrice,
						PromotionPrice: cfg.Gym.PromotionPrice,
					},
					LookAhead: cfg.LookAhead(),
					Now:       time.Now,
				},
			)

			summary, err := job.Run(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func connect(ctx context.Context) (*config.Config, *mongo.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return cfg, client.Database(cfg.MongoDB.Database), nil
}

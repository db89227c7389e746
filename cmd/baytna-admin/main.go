// Command baytna-admin runs maintenance tasks against the configured database.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"baytna-backend/internal/config"
	"baytna-backend/internal/models"
	"baytna-backend/internal/services"
	"baytna-backend/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "baytna-admin",
		Short:        "Maintenance commands for the Baytna backend",
		SilenceUsage: true,
	}
	root.AddCommand(migrateCmd(), createUserCmd(), cleanupCmd())
	return root
}

func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		return nil, nil, err
	}
	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var (
		fullName, password, role              string
		canApprove, canApproveTrips, canShort bool
	)
	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user, typically the first admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if len(password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}
			_, db, err := openDB()
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			if fullName == "" {
				fullName = args[0]
			}
			user := models.User{
				Username:        args[0],
				FullName:        fullName,
				PasswordHash:    hash,
				Role:            r,
				CanApprove:      canApprove,
				CanApproveTrips: canApproveTrips,
				CanAddShortages: canShort,
				IsActive:        true,
			}
			if err := db.Create(&user).Error; err != nil {
				return fmt.Errorf("create user %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (id %d, role %s)\n", user.Username, user.ID, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "name", "", "full name (defaults to the username)")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "admin, household, maid or driver")
	cmd.Flags().BoolVar(&canApprove, "can-approve", false, "may approve grocery orders")
	cmd.Flags().BoolVar(&canApproveTrips, "can-approve-trips", false, "may approve trips")
	cmd.Flags().BoolVar(&canShort, "can-add-shortages", false, "may report shortages")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run one retention sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			cleaner := services.NewCleaner(db, cfg.Cleanup.NotificationRetention, cfg.Cleanup.HistoryRetention)
			res, err := cleaner.Sweep(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d notifications, %d trips, %d orders (%d items), %d laundry requests\n",
				res.Notifications, res.Trips, res.Orders, res.OrderItems, res.LaundryRequests)
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/sjperalta/rentdesk-api/internal/config"
	"github.com/sjperalta/rentdesk-api/internal/database"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/services"
	"github.com/sjperalta/rentdesk-api/internal/storage"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rentctl",
		Short: "RentDesk maintenance commands",
	}

	rootCmd.AddCommand(
		migrateCmd(),
		sweepCmd(),
		createAdminCmd(),
		testEmailCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Environment, cfg.LogLevel)
	return cfg, nil
}

// newServices wires the service layer without a worker so side effects run inline
func newServices(cfg *config.Config, db *gorm.DB) (*services.Services, error) {
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, err
	}
	return services.NewServices(repository.NewRepositories(db), nil, store, cfg), nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or alter the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the billing sweeps once",
		Long:  "Runs one sweep (invoices, dues, expiring, collection_reminders, overdue) or all of them for a reference day.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, _ := cmd.Flags().GetString("sweep")
			dayFlag, _ := cmd.Flags().GetString("day")

			var day time.Time
			if dayFlag != "" {
				d, err := models.ParseDate(dayFlag)
				if err != nil {
					return fmt.Errorf("invalid --day %q: %v", dayFlag, err)
				}
				day = d
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			svcs, err := newServices(cfg, db)
			if err != nil {
				return err
			}

			results, err := svcs.Job.RunSweep(cmd.Context(), services.SystemActor, sweep, day)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				fmt.Println(r.String())
				failed += r.Failed
			}
			if failed > 0 {
				return fmt.Errorf("%d records failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().String("sweep", "", "Run only this sweep")
	cmd.Flags().String("day", "", "Reference day, YYYY-MM-DD (default today)")

	return cmd
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			svcs, err := newServices(cfg, db)
			if err != nil {
				return err
			}

			user := &models.User{Email: email, FullName: name, Role: models.RoleAdmin}
			if err := svcs.User.Create(cmd.Context(), services.SystemActor, user, password); err != nil {
				return err
			}
			fmt.Printf("Admin %s created with id %d\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("name", "Administrator", "Full name")
	cmd.Flags().String("password", "", "Password; a temporary one is emailed when empty")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// testEmailCmd sends the account email through Resend to check the sender domain
func testEmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-email",
		Short: "Send a test email through Resend",
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
				return fmt.Errorf("RESEND_API_KEY and FROM_EMAIL must be set")
			}

			email := services.NewEmailService(cfg)
			user := &models.User{FullName: "Test User", Email: to}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := email.SendAccountCreated(ctx, user, ""); err != nil {
				return err
			}
			fmt.Printf("Test email sent to %s\n", to)
			return nil
		},
	}

	cmd.Flags().String("to", "", "Recipient address")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

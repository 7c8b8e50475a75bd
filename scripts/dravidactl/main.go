package main

import (
	"context"
	"cyberdravida/config"
	"cyberdravida/database"
	"cyberdravida/services"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

func connect() (*config.Config, *gorm.DB, error) {
	cfg := config.LoadConfig()
	db, err := database.ConnectDb(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "dravidactl",
		Short:   "Operator tasks for the Cyber Dravida API",
		Version: Version,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(expireCouponsCmd())
	rootCmd.AddCommand(importCoursesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := connect(); err != nil {
				return err
			}
			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample instructor, courses and coupon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			if _, err := database.EnsureAdmin(db, cfg.AdminEmail, cfg.AdminPassword, cfg.SaltRound); err != nil {
				return err
			}
			if err := database.SeedCatalog(db, cfg.SaltRound); err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			fmt.Println("Seed complete")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.AdminEmail
			}
			if password == "" {
				password = cfg.AdminPassword
			}
			user, err := database.EnsureAdmin(db, email, password, cfg.SaltRound)
			if err != nil {
				return err
			}
			fmt.Printf("Admin ready: %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "admin email (defaults to ADMIN_EMAIL)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for a new account (defaults to ADMIN_PASSWORD)")
	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Restore enrollments missing from completed payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			svc := services.New(db, services.OptionsFromConfig(cfg), nil)
			repaired, err := svc.Payments.Reconcile(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Restored %d enrollments\n", repaired)
			return nil
		},
	}
}

func expireCouponsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-coupons",
		Short: "Deactivate coupons past their expiry date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			svc := services.New(db, services.OptionsFromConfig(cfg), nil)
			n, err := svc.Coupons.DeactivateExpired(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deactivated %d coupons\n", n)
			return nil
		},
	}
}

func importCoursesCmd() *cobra.Command {
	var instructorID uint
	cmd := &cobra.Command{
		Use:   "import-courses [file.csv]",
		Short: "Create or update courses from a CSV file",
		Long: `Create or update courses from a CSV file with a header row.

Columns: title, short_description, description, price, original_price,
level, duration, category, thumbnail, is_featured, requirements, outcomes.
List columns separate items with "|". Existing courses are matched by the
slug of their title; new courses are created unpublished.

Examples:
  dravidactl import-courses catalog.csv
  dravidactl import-courses catalog.csv --instructor 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			var instructor *uint
			if instructorID > 0 {
				instructor = &instructorID
			}
			svc := services.New(db, services.OptionsFromConfig(cfg), nil)
			result, err := svc.Catalog.ImportCSV(context.Background(), file, instructor)
			if err != nil {
				return err
			}
			for _, msg := range result.Errors {
				fmt.Fprintln(os.Stderr, msg)
			}
			fmt.Printf("Inserted: %d\nUpdated: %d\nSkipped: %d\n", result.Inserted, result.Updated, result.Skipped)
			return nil
		},
	}

	cmd.Flags().UintVar(&instructorID, "instructor", 0, "instructor user id for new courses")
	return cmd
}

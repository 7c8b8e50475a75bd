package main

import (
	"context"
	"cyberdravida/config"
	"cyberdravida/database"
	"cyberdravida/middleware"
	"cyberdravida/routers"
	"cyberdravida/services"
	"cyberdravida/utils"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.ConnectDb(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	if _, err := database.EnsureAdmin(db, cfg.AdminEmail, cfg.AdminPassword, cfg.SaltRound); err != nil {
		log.Fatalf("Failed to bootstrap admin: %v", err)
	}

	settings := routers.Settings{JWTKey: cfg.JWTKey, JWTExpiry: cfg.JWTExpiry}
	var gateway services.CheckoutGateway
	if cfg.Stripe.Enabled() {
		stripe := utils.NewStripeClient(cfg.Stripe.APIURL, cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
		gateway = stripe
		settings.Webhooks = stripe
		log.Println("[PAYMENT] Stripe checkout enabled")
	} else {
		log.Println("[PAYMENT] Stripe not configured, card checkout runs in mock mode")
	}

	svc := services.New(db, services.OptionsFromConfig(cfg), gateway)

	app := fiber.New(fiber.Config{
		AppName:      "Cyber Dravida API",
		ErrorHandler: middleware.ErrorHandler(cfg.IsProduction()),
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	routers.Setup(app, db, svc, settings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler, err := utils.InitializeMaintenanceScheduler(ctx, cfg.ReconcileCron, cfg.CouponExpiryCron, svc.Payments, svc.Coupons)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		<-scheduler.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

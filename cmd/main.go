package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"

	"github.com/lumenave/visitor-pass-service/internal/app"
	"github.com/lumenave/visitor-pass-service/internal/config"
	"github.com/lumenave/visitor-pass-service/internal/controllers"
	"github.com/lumenave/visitor-pass-service/internal/middleware"
	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/routes"
	"github.com/lumenave/visitor-pass-service/internal/services"
	"github.com/lumenave/visitor-pass-service/internal/transport"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize visitor-pass-service:", err)
	}
	defer application.Close()

	clock, err := utils.NewCivilClock(cfg.FacilityUTCOffset)
	if err != nil {
		utils.Logger.Fatal("Bad facility timezone config:", err)
	}

	passRepo := repositories.NewPassRepository(application.DB)
	residentRepo := repositories.NewResidentRepository(application.DB)

	messenger := transport.NewTwilioMessenger(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone)

	passService := services.NewPassService(passRepo)
	redemptionService := services.NewRedemptionService(passRepo, residentRepo, messenger, clock)
	visitorScope := services.NewVisitorScopeService(messenger, clock, services.FacilityInfo{
		Name:             cfg.FacilityName,
		InfoText:         cfg.FacilityInfoText,
		Directions:       cfg.FacilityDirections,
		EmergencyContact: cfg.FacilityEmergency,
	})
	wizardService := services.NewWizardService(passService, messenger, clock, cfg.WizardIdleTTL)
	chatRouter := services.NewChatRouterService(
		residentRepo, passService, wizardService, redemptionService, visitorScope, messenger, clock,
	)
	adminService := services.NewAdminPassService(passRepo)
	sweepService := services.NewSweepService(passRepo)

	messageController := controllers.NewMessageController(chatRouter)
	passesController := controllers.NewPassesController(redemptionService)
	adminController := controllers.NewAdminPassesController(adminService, clock, cfg.FacilityID)
	healthController := controllers.NewHealthController(application)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.InboundMessage, messageController.InboundMessageHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PassesRedeem, passesController.RedeemHandler).Methods(http.MethodPost)

	// Oversight
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AdminAuthMiddleware(cfg.AdminJWTSecret))
	secured.HandleFunc(routes.AdminPasses, adminController.ListHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.AdminPassesReview, adminController.ReviewHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AdminPassesRevoke, adminController.RevokeHandler).Methods(http.MethodPost)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sweepService.SweepExpired(ctx)
	}); err != nil {
		utils.Logger.Fatal("Failed to schedule expiry sweep:", err)
	}
	if cfg.SendGridAPIKey != "" && cfg.SummaryToEmail != "" {
		sgClient := sendgrid.NewSendClient(cfg.SendGridAPIKey)
		summaryService := services.NewSummaryService(
			passRepo, sgClient, cfg.FacilityID, cfg.FacilityName, cfg.SummaryFromEmail, cfg.SummaryToEmail,
		)
		if _, err := scheduler.AddFunc("0 6 * * *", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := summaryService.SendDailySummary(ctx); err != nil {
				utils.Logger.WithError(err).Warn("Daily summary failed")
			}
		}); err != nil {
			utils.Logger.Fatal("Failed to schedule daily summary:", err)
		}
	} else {
		utils.Logger.Info("SendGrid not configured; daily summary disabled")
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)

	utils.Logger.Infof("visitor-pass-service listening on :%s", cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, handler); err != nil {
		utils.Logger.Fatal("Server stopped:", err)
	}
}

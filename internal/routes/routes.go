package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleitonmachado77/NutriBoxBack/internal/config"
	"github.com/cleitonmachado77/NutriBoxBack/internal/handlers"
	"github.com/cleitonmachado77/NutriBoxBack/internal/middleware"
	"github.com/cleitonmachado77/NutriBoxBack/internal/models"
	"github.com/cleitonmachado77/NutriBoxBack/internal/providers"
	"github.com/cleitonmachado77/NutriBoxBack/internal/realtime"
	"github.com/cleitonmachado77/NutriBoxBack/internal/repository"
	"github.com/cleitonmachado77/NutriBoxBack/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	tagRepo := repository.NewTagRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	twilioNumberRepo := repository.NewTwilioNumberRepository(db)
	questionnaireRepo := repository.NewQuestionnaireRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	evolutionClient := providers.NewEvolutionClient(cfg.EvolutionBaseURL, cfg.EvolutionAPIKey)
	maytapiClient := providers.NewMaytapiClient(cfg.MaytapiBaseURL, cfg.MaytapiProductID, cfg.MaytapiToken)
	twilioClient := providers.NewTwilioClient(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	registry := services.ProviderRegistry{
		models.ProviderEvolution: evolutionClient,
		models.ProviderMaytapi:   maytapiClient,
		models.ProviderTwilio:    twilioClient,
	}

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	hub := realtime.NewHub()
	go hub.Run()

	deliveryService := services.NewDeliveryService(registry, sessionRepo, conversationRepo, messageRepo, hub)
	inboundService := services.NewInboundService(sessionRepo, twilioNumberRepo, conversationRepo, messageRepo, hub)
	chatService := services.NewChatService(conversationRepo, messageRepo, deliveryService)
	llm := services.NewOpenAIService(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	coachService := services.NewCoachService(leadRepo, interactionRepo, responseRepo, questionnaireRepo, llm, deliveryService)
	questionnaireService := services.NewQuestionnaireService(questionnaireRepo, interactionRepo, responseRepo, scheduleRepo, deliveryService)
	waSessionService := services.NewWASessionService(sessionRepo, twilioNumberRepo, evolutionClient, maytapiClient, twilioClient)

	authHandler := handlers.NewAuthHandler(db, userRepo, cfg.JWTSecret)
	leadHandler := handlers.NewLeadHandler(leadRepo)
	tagHandler := handlers.NewTagHandler(tagRepo)
	patientHandler := handlers.NewPatientHandler(patientRepo, leadRepo)
	consultationHandler := handlers.NewConsultationHandler(consultationRepo, storageService)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo, scheduleRepo)
	chatHandler := handlers.NewChatHandler(chatService, hub, cfg.JWTSecret)
	coachHandler := handlers.NewCoachHandler(coachService, questionnaireService, questionnaireRepo)
	sessionHandler := handlers.NewSessionHandler(waSessionService)
	webhookHandler := handlers.NewWebhookHandler(inboundService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Provider callbacks are unauthenticated.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/evolution", webhookHandler.Evolution)
	webhooks.Post("/maytapi", webhookHandler.Maytapi)
	webhooks.Post("/twilio", webhookHandler.Twilio)
	webhooks.Post("/whatsapp", webhookHandler.Generic)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	leads := protected.Group("/leads")
	leads.Get("", leadHandler.List)
	leads.Post("", leadHandler.Create)
	leads.Put("/:id", leadHandler.Update)
	leads.Delete("/:id", leadHandler.Delete)
	leads.Put("/:id/move", leadHandler.Move)
	leads.Put("/:id/tags", leadHandler.SetTags)
	leads.Post("/:id/convert", patientHandler.ConvertLead)

	tags := protected.Group("/tags")
	tags.Get("", tagHandler.List)
	tags.Post("", tagHandler.Create)
	tags.Delete("/:id", tagHandler.Delete)

	patients := protected.Group("/patients")
	patients.Get("", patientHandler.List)
	patients.Post("", patientHandler.Create)
	patients.Put("/:id", patientHandler.Update)
	patients.Delete("/:id", patientHandler.Delete)
	patients.Get("/:patientId/consultations", consultationHandler.ListPerformed)
	patients.Get("/:patientId/schedule", settingsHandler.GetSchedule)

	consultations := protected.Group("/consultations")
	consultations.Get("", consultationHandler.List)
	consultations.Post("", consultationHandler.Create)
	consultations.Put("/:id/status", consultationHandler.UpdateStatus)
	consultations.Post("/performed", consultationHandler.RecordPerformed)
	consultations.Post("/performed/:id/files", consultationHandler.UploadFile)
	consultations.Get("/performed/:id/files", consultationHandler.ListFiles)

	settings := protected.Group("/settings")
	settings.Get("", settingsHandler.Get)
	settings.Put("", settingsHandler.Update)

	schedules := protected.Group("/schedules")
	schedules.Get("", settingsHandler.ListActiveSchedules)
	schedules.Put("", settingsHandler.UpsertSchedule)

	conversations := protected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Put("/:id/read", chatHandler.MarkRead)
	conversations.Put("/:id/archive", chatHandler.SetArchived)

	coach := protected.Group("/coach")
	coach.Post("/generate", coachHandler.Generate)
	coach.Post("/questionnaire", coachHandler.Questionnaire)
	coach.Get("/questionnaires", coachHandler.ListQuestionnaires)
	coach.Delete("/questionnaires/:id", coachHandler.RetireQuestionnaire)

	whatsapp := protected.Group("/whatsapp")
	whatsapp.Post("/connect", sessionHandler.Connect)
	whatsapp.Get("/qr", sessionHandler.GetQR)
	whatsapp.Get("/status", sessionHandler.CheckConnection)
	whatsapp.Post("/disconnect", sessionHandler.Disconnect)
	whatsapp.Post("/twilio/numbers", sessionHandler.LinkTwilioNumbers)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}

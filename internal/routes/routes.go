package routes

import (
	"log"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KudzoNelsam/easycollis/internal/cache"
	"github.com/KudzoNelsam/easycollis/internal/config"
	"github.com/KudzoNelsam/easycollis/internal/handlers"
	"github.com/KudzoNelsam/easycollis/internal/middleware"
	"github.com/KudzoNelsam/easycollis/internal/models"
	"github.com/KudzoNelsam/easycollis/internal/repository"
	"github.com/KudzoNelsam/easycollis/internal/services"
	chatws "github.com/KudzoNelsam/easycollis/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	passRepo := repository.NewPassRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	tripRepo := repository.NewTripRepository(db)
	tripFollowRepo := repository.NewTripFollowRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	var mailer services.Mailer
	if cfg.MailConfigured() {
		mailer = services.NewHTTPMailer(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)
	}

	var paytech *services.PaytechClient
	if cfg.PaytechConfigured() {
		paytech = services.NewPaytechClient(
			cfg.PaytechBaseURL,
			cfg.PaytechAPIKey,
			cfg.PaytechAPISecret,
			cfg.PaytechEnv,
			cfg.PaytechIPNURL,
			cfg.PaytechSuccessURL,
			cfg.PaytechCancelURL,
		)
	}

	var destinationsCache *cache.RedisCache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("redis unavailable, popular destinations cache disabled: %v", err)
		} else {
			destinationsCache = redisCache
		}
	}

	passService := services.NewPassService(cfg.PassMode, passRepo)
	contactService := services.NewContactService(db, userRepo, conversationRepo, passService, mailer)
	chatService := services.NewChatService(db, conversationRepo, messageRepo)
	paymentService := services.NewPaymentService(db, paymentRepo, userRepo, paytech, passService)

	var tripCache services.DestinationsCache
	if destinationsCache != nil {
		tripCache = destinationsCache
	}
	tripService := services.NewTripService(tripRepo, tripFollowRepo, userRepo, tripCache)

	authHandler := handlers.NewAuthHandler(db, userRepo, passService, mailer, cfg.JWTSecret)
	chatHub := chatws.NewHub()
	go chatHub.Run()
	chatHandler := handlers.NewChatHandler(chatService, contactService, chatHub, cfg.JWTSecret)
	tripHandler := handlers.NewTripHandler(tripService)
	gpDiscoveryHandler := handlers.NewGPDiscoveryHandler(tripService)
	passHandler := handlers.NewPassHandler(paymentService, passService)
	adminHandler := handlers.NewAdminHandler(userRepo, paymentService)

	authLimiter := middleware.NewRateLimiter(1, 10)

	api := app.Group("/api")

	auth := api.Group("/auth", authLimiter.Handler())
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Public discovery surface, no token required.
	public := api.Group("/v1/public")
	public.Get("/trips", gpDiscoveryHandler.ListTrips)
	public.Get("/gps/:id", gpDiscoveryHandler.GetGPDetail)
	public.Get("/destinations/popular", gpDiscoveryHandler.GetPopularDestinations)
	public.Get("/packs", passHandler.GetPacks)
	public.Post("/payments/ipn", passHandler.IPN)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	trips := authProtected.Group("/trips")
	trips.Post("", tripHandler.CreateTrip)
	trips.Get("/mine", tripHandler.MyTrips)
	trips.Get("/followed", tripHandler.FollowedTrips)
	trips.Put("/:id", tripHandler.UpdateTrip)
	trips.Delete("/:id", tripHandler.DeleteTrip)
	trips.Post("/:id/follow", tripHandler.FollowTrip)
	trips.Delete("/:id/follow", tripHandler.UnfollowTrip)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)

	pass := authProtected.Group("/pass")
	pass.Get("", passHandler.GetStatus)
	pass.Post("/checkout", passHandler.Checkout)
	pass.Get("/transactions", passHandler.GetTransactions)

	admin := authProtected.Group("/admin", middleware.RequireRole(string(models.RoleAdmin)))
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/payments", adminHandler.ListPayments)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}

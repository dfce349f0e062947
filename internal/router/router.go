package router

import (
	"log"

	"github.com/anonto42/treegram/backend/internal/fanout"
	"github.com/anonto42/treegram/backend/internal/feed"
	"github.com/anonto42/treegram/backend/internal/handlers"
	"github.com/anonto42/treegram/backend/internal/middleware"
	"github.com/anonto42/treegram/backend/internal/treestore"
	"github.com/anonto42/treegram/backend/internal/ws"
	"github.com/anonto42/treegram/backend/pkg/config"
	"github.com/anonto42/treegram/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// NewStore selects the tree store backend from configuration
func NewStore(cfg *config.Config, firebaseApp *firebase.App, mongoClient *mongo.Client) treestore.Store {
	switch cfg.StoreBackend {
	case "mongo":
		log.Println("Using MongoDB tree store backend.")
		return treestore.NewMongoStore(mongoClient.Database(cfg.MongoDatabase))
	case "memory":
		log.Println("Using in-memory tree store backend.")
		return treestore.NewMemoryStore()
	default:
		log.Println("Using Firebase Realtime Database tree store backend.")
		return treestore.NewFirebaseStore(firebaseApp.DBClient, cfg.PollInterval)
	}
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, store treestore.Store, firebaseApp *firebase.App) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	writer := fanout.NewWriter(store)
	assembler := feed.NewAssembler(store)

	hub := ws.NewHub()
	go hub.Run()
	log.Println("Websocket hub started.")

	// --- Protected routes (require authentication) ---
	api := e.Group("/api/v1")
	if cfg.AuthMode == "local" {
		api.Use(middleware.LocalAuthMiddleware(cfg.JWTSecret))
		log.Println("Local JWT authentication middleware applied to /api/v1 group.")
	} else {
		api.Use(middleware.FirebaseAuthMiddleware(firebaseApp.AuthClient))
		log.Println("Firebase authentication middleware applied to /api/v1 group.")
	}

	// User profile routes
	userHandler := handlers.NewUserHandler(writer, assembler)
	userHandler.RegisterUserRoutes(api)
	log.Println("User profile routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(writer, assembler)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(assembler)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(writer)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(writer, assembler)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Like routes
	likeHandler := handlers.NewLikeHandler(writer)
	likeHandler.RegisterLikeRoutes(api)
	log.Println("Like routes configured.")

	// Story routes
	storyHandler := handlers.NewStoryHandler(writer)
	storyHandler.RegisterStoryRoutes(api)
	log.Println("Story routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(writer, assembler)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Chat and realtime routes
	chatHandler := handlers.NewChatHandler(writer, store, hub)
	chatHandler.RegisterChatRoutes(api)
	log.Println("Chat and websocket routes configured.")

	log.Println("All routes configured.")
}

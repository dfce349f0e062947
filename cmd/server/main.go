package main

import (
	"context"
	"log"

	"github.com/anonto42/treegram/backend/internal/router"
	"github.com/anonto42/treegram/backend/pkg/config"
	"github.com/anonto42/treegram/backend/pkg/firebase"
	"github.com/anonto42/treegram/backend/validators"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx := context.Background()

	// Initialize Firebase when it backs the store or the auth middleware
	var firebaseApp *firebase.App
	if cfg.StoreBackend == "firebase" || cfg.AuthMode == "firebase" {
		var err error
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseDatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	// Initialize MongoDB when it backs the store
	var mongoClient *mongo.Client
	if cfg.StoreBackend == "mongo" {
		var err error
		mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			log.Fatalf("Failed to ping MongoDB: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(ctx); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()
		log.Println("MongoDB connected successfully!")
	}

	store := router.NewStore(cfg, firebaseApp, mongoClient)

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, store, firebaseApp)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

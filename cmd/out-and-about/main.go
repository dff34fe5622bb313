package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/maya/out-and-about/pkg/collectors"
	"github.com/maya/out-and-about/pkg/config"
	"github.com/maya/out-and-about/pkg/domain"
	"github.com/maya/out-and-about/pkg/engine"
	"github.com/maya/out-and-about/pkg/integrations"
	"github.com/maya/out-and-about/pkg/interfaces"
	"github.com/maya/out-and-about/pkg/metrics"
)

func main() {
	log.Println("Starting Out and About...")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config: %v. Using defaults.", err)
		cfg = &config.Config{}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	db, err := collectors.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Initialize repositories
	entityRepo, err := collectors.NewEntityRepository(db)
	if err != nil {
		log.Fatalf("Failed to create entity repository: %v", err)
	}
	attendanceRepo, err := collectors.NewAttendanceRepository(db)
	if err != nil {
		log.Fatalf("Failed to create attendance repository: %v", err)
	}
	flagRepo, err := collectors.NewFlagRepository(db)
	if err != nil {
		log.Fatalf("Failed to create flag repository: %v", err)
	}

	// Initialize external clients (optional - only if configured)
	var ticketmasterClient *integrations.TicketmasterClient
	if cfg.APIs.Ticketmaster.APIKey != "" {
		ticketmasterClient, err = integrations.NewTicketmasterClient(integrations.TicketmasterConfig{
			APIKey: cfg.APIs.Ticketmaster.APIKey,
		})
		if err != nil {
			log.Printf("Warning: Failed to create Ticketmaster client: %v", err)
		}
	}

	var placesClient *integrations.PlacesClient
	if cfg.APIs.Places.APIKey != "" {
		placesClient, err = integrations.NewPlacesClient(integrations.PlacesConfig{
			APIKey: cfg.APIs.Places.APIKey,
		})
		if err != nil {
			log.Printf("Warning: Failed to create Places client: %v", err)
		}
	}

	var checkoutClient *integrations.CheckoutClient
	if cfg.APIs.Checkout.SecretKey != "" {
		checkoutClient, err = integrations.NewCheckoutClient(integrations.CheckoutConfig{
			SecretKey: cfg.APIs.Checkout.SecretKey,
		})
		if err != nil {
			log.Printf("Warning: Failed to create checkout client: %v", err)
		}
	}

	var aggregator *integrations.NearbyAggregator
	if ticketmasterClient != nil || placesClient != nil {
		aggregator = integrations.NewNearbyAggregator(ticketmasterClient, placesClient)
	}

	// Initialize engine components
	m := metrics.New()

	var externalFetcher interfaces.ExternalPool
	if aggregator != nil {
		externalFetcher = aggregator
	}
	detailRouter := interfaces.NewDetailRouter(entityRepo, externalFetcher)

	detailCache, err := engine.NewDetailCache(detailRouter, cfg.Engine.DetailCacheSize, m)
	if err != nil {
		log.Fatalf("Failed to create detail cache: %v", err)
	}
	reconciler := engine.NewMembershipReconciler(attendanceRepo, m)

	// Initialize services
	entityService := interfaces.NewEntityService(entityRepo, externalFetcher)

	var similarGateway domain.SimilarItemsGateway
	if aggregator != nil {
		similarGateway = aggregator
	}
	sessionManager := interfaces.NewSessionManager(entityService, detailCache, similarGateway, attendanceRepo, m, interfaces.SessionConfig{
		VisitedHistorySize: cfg.Engine.VisitedHistorySize,
		SimilarLimit:       cfg.Engine.SimilarLimit,
		SimilarRadiusKm:    cfg.Engine.SimilarRadiusKm,
	})

	var checkoutGateway domain.CheckoutGateway
	if checkoutClient != nil {
		checkoutGateway = checkoutClient
	}
	eventService := interfaces.NewEventService(entityRepo, attendanceRepo, flagRepo, reconciler, checkoutGateway, detailCache)

	// Initialize HTTP handlers
	nearbyHandler := interfaces.NewNearbyHandler(entityService)
	sessionHandler := interfaces.NewSessionHandler(sessionManager)
	eventHandler := interfaces.NewEventHandler(eventService)

	// Setup router
	router := mux.NewRouter()
	nearbyHandler.RegisterRoutes(router)
	sessionHandler.RegisterRoutes(router)
	eventHandler.RegisterRoutes(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	router.Handle("/metrics", m.Handler()).Methods("GET")

	// Log available routes
	log.Println("Available routes:")
	router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		path, _ := route.GetPathTemplate()
		methods, _ := route.GetMethods()
		log.Printf("  %v %s", methods, path)
		return nil
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped. Go touch some grass.")
}

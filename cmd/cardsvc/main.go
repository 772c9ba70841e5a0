package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/idcard-services/configs"
	"github.com/avvvet/idcard-services/internal/cardsvc/broker"
	"github.com/avvvet/idcard-services/internal/cardsvc/db"
	handlers "github.com/avvvet/idcard-services/internal/cardsvc/handlers"
	"github.com/avvvet/idcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/idcard-services/internal/cardsvc/service"
	"github.com/avvvet/idcard-services/internal/cardsvc/store"
	"github.com/avvvet/idcard-services/internal/cardsvc/token"
	nats "github.com/avvvet/idcard-services/internal/nats"
)

const SERVICE_NAME = "card"

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service")
}

func main() {
	instanceId := config.CreateUniqueInstance(SERVICE_NAME)

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// pg connection
	ctx := context.Background()
	dbpool, err := db.Connect(ctx, settings.DatabaseURL, settings.DBMaxConns)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	if err := db.EnsureSchema(ctx, dbpool); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	tokens, err := token.New(settings.JWTSecret,
		token.WithTTL(settings.TokenTTL),
		token.WithLeeway(settings.TokenLeeway))
	if err != nil {
		log.Fatalf("Token service unavailable: %v", err)
	}

	gate := service.NewOperatorGate(settings.OperatorAllowList)
	if gate.Mode() == service.GateOpen {
		log.Warn("operator gate is OPEN: ADMIN_ALLOWED_EMAIL is empty, any operator may write logs")
	} else {
		log.Infof("operator gate restricted to %d identities", gate.Size())
	}

	m := metrics.New(SERVICE_NAME)

	cardService := service.NewCardService(store.NewCardStore(dbpool), m)
	logService := service.NewLogService(store.NewLogStore(dbpool), m)
	issuer := service.NewTokenIssuer(cardService, tokens, m)

	// NATS is optional: without it scans are still logged, just not fanned out.
	var notifier service.ScanNotifier
	if settings.NatsURL != "" {
		n, err := nats.Connect(settings.NatsURL, settings.NatsToken, SERVICE_NAME+"-"+instanceId)
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v", err)
		} else {
			defer n.Conn.Close()
			log.Printf("NATS connection established successfully %s", n.Url)
			notifier = broker.NewBroker(n.Conn)
		}
	}

	scanService := service.NewScanService(tokens, gate, cardService, logService, notifier, m)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(settings.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(settings.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(cardService, issuer, scanService, m)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + settings.CardPort,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

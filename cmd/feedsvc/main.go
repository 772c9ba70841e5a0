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
	"github.com/avvvet/idcard-services/internal/cardsvc/service"
	"github.com/avvvet/idcard-services/internal/cardsvc/token"
	"github.com/avvvet/idcard-services/internal/comm"
	"github.com/avvvet/idcard-services/internal/feedsvc/broker"
	"github.com/avvvet/idcard-services/internal/feedsvc/handlers"
	"github.com/avvvet/idcard-services/internal/feedsvc/routes"
	"github.com/avvvet/idcard-services/internal/feedsvc/ws"
	"github.com/avvvet/idcard-services/internal/nats"
)

const SERVICE_NAME = "feed"

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service")
}

func main() {
	instanceId := config.CreateUniqueInstance(SERVICE_NAME)

	settings, err := config.LoadFeed()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to NATS
	n, err := nats.Connect(settings.NatsURL, settings.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(settings.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(settings.RateLimit, 1*time.Minute))

	tokens, err := token.New(settings.JWTSecret)
	if err != nil {
		log.Fatalf("Token service unavailable: %v", err)
	}
	gate := service.NewOperatorGate(settings.OperatorAllowList)
	if gate.Mode() == service.GateOpen {
		log.Warn("feed gate is OPEN: any valid feed token is accepted")
	}

	s := ws.NewWs()
	h := handlers.NewHandler(s, handlers.OriginChecker(settings.CORSOrigins))
	routes.SetRoutes(r, h, tokens.Auth(), gate.IsAuthorized)

	// relay every committed scan to the connected clients
	b := broker.NewBroker(n.Conn, s.Broadcast)
	sub, err := b.Subscribe(comm.SubjectScanLogged)
	if err != nil {
		log.Fatalf("Error: unable to subscribe to %s %v", comm.SubjectScanLogged, err)
	}

	// Create server with timeout settings
	server := &http.Server{
		Addr:        ":" + settings.FeedPort,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
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

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chatsync/internal/api"
	"chatsync/internal/archive"
	"chatsync/internal/config"
	"chatsync/internal/handlers"
	"chatsync/internal/history"
	"chatsync/internal/middleware"
	"chatsync/internal/observability"
	"chatsync/internal/rabbitmq"
	"chatsync/internal/roomsync"
	"chatsync/internal/session"
	"chatsync/internal/store"
	"chatsync/internal/telemetry"
	"chatsync/internal/ws"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sess, err := session.FromToken(cfg.Token)
	if err != nil {
		log.Fatalf("invalid session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, "chatsync", cfg.Environment)
	if err != nil {
		log.Fatalf("tracing setup failed: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)

	emitter := telemetry.NewAuditEmitter(publisher, "chatsync.audit", "chatsync", cfg.Environment)
	emitter.Emit(ctx, "INFO", "sync engine starting", &sess.UserID)

	st := store.New()

	if cfg.ArchiveDSN != "" {
		arch, err := archive.Open(cfg.ArchiveDSN)
		if err != nil {
			log.Fatalf("archive setup failed: %v", err)
		}
		defer arch.Close()
		st.Subscribe(arch.Append)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.Token)
	loader := history.NewLoader(client, st)
	syncer := roomsync.New(client, st)

	transport := ws.NewTransport(ws.Config{
		URL:          cfg.WSURL,
		Token:        cfg.Token,
		UserID:       sess.UserID,
		ReconnectMin: cfg.ReconnectMin,
		ReconnectMax: cfg.ReconnectMax,
	}, st, syncer)

	// Every refreshed directory may surface rooms this session has not
	// joined yet; announce those and backfill their timelines.
	var joinedMu sync.Mutex
	joined := make(map[int64]struct{})
	syncer.OnRooms = func(ctx context.Context) {
		for _, room := range st.Rooms() {
			joinedMu.Lock()
			_, seen := joined[room.ID]
			if !seen {
				joined[room.ID] = struct{}{}
			}
			joinedMu.Unlock()
			if seen {
				continue
			}
			transport.JoinRoom(room.ID)
			go func(roomID int64) {
				loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				_ = loader.LoadRoomMessages(loadCtx, roomID)
			}(room.ID)
		}
	}

	go transport.Run(ctx)
	go func() {
		if err := syncer.Refresh(ctx); err != nil {
			log.Printf("initial room directory fetch failed: %v", err)
		}
	}()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chatsync"))
	router.Use(observability.HTTPMetricsMiddleware())

	state := handlers.NewStateHandler(st, loader)
	router.GET("/healthz", state.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	debug := router.Group("/debug", middleware.DebugAuth(cfg.DebugToken))
	debug.GET("/rooms", state.ListRooms)
	debug.GET("/rooms/:room_id/messages", state.RoomMessages)
	debug.GET("/presence", state.Presence)
	debug.GET("/connection", state.Connection)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Printf("local surface listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	emitter.Emit(context.Background(), "INFO", "sync engine stopping", &sess.UserID)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	transport.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}

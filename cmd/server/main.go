package main // Entry point package

import (
	"context" // schema setup deadlines
	"log"     // Logging library
	"time"    // timeouts

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/ticket-registry/internal/config"
	"github.com/iliyamo/ticket-registry/internal/database"
	"github.com/iliyamo/ticket-registry/internal/handler"
	"github.com/iliyamo/ticket-registry/internal/middleware"
	"github.com/iliyamo/ticket-registry/internal/model"
	"github.com/iliyamo/ticket-registry/internal/monitoring"
	"github.com/iliyamo/ticket-registry/internal/queue"
	"github.com/iliyamo/ticket-registry/internal/registry"
	"github.com/iliyamo/ticket-registry/internal/repository"
	"github.com/iliyamo/ticket-registry/internal/router"
	queuepublisher "github.com/iliyamo/ticket-registry/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	// MySQL backs the durable side channels: the event journal and the
	// operator credential store.  The registry itself stays in memory.
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	operators := repository.NewOperatorRepo(db)
	tokens := repository.NewTokenRepo(db)
	journal := repository.NewEventJournal(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := operators.EnsureSchema(ctx); err != nil {
		log.Fatalf("operators schema: %v", err)
	}
	if err := tokens.EnsureSchema(ctx); err != nil {
		log.Fatalf("tokens schema: %v", err)
	}
	if err := journal.EnsureSchema(ctx); err != nil {
		log.Fatalf("journal schema: %v", err)
	}
	cancel()

	reg := registry.New(model.Identity(cfg.GenesisIdentity), cfg.TicketValidity)

	// The notifier runs while the registry lock is held, so it must only
	// hand the event off.  A single forwarding goroutine drains the channel
	// in order and fans out to metrics, the journal and RabbitMQ.
	events := make(chan registry.Event, 1024)
	reg.SetNotifier(func(ev registry.Event) {
		select {
		case events <- ev:
		default:
			log.Printf("event channel full, dropping seq=%d kind=%s", ev.Seq, ev.Kind)
		}
	})
	go func() {
		for ev := range events {
			monitoring.TrackEvent(ev)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := journal.Append(ctx, ev); err != nil {
				log.Printf("journal append seq=%d: %v", ev.Seq, err)
			}
			if err := queuepublisher.PublishTicketEvent(ctx, queue.FromRegistryEvent(ev)); err != nil {
				log.Printf("publish seq=%d: %v", ev.Seq, err)
			}
			cancel()
		}
	}()

	// Background consumer mirrors the queue into logs/ticket.log.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer disabled: %v", err)
		}
	}()

	e := echo.New()

	// Redis-backed rate limiting; degrades to a no-op when Redis is down.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	auth := handler.NewAuthHandler(cfg, operators, tokens)
	admin := handler.NewAdminHandler(reg)
	trade := handler.NewTradeHandler(reg)
	browse := handler.NewBrowseHandler(reg, journal)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterPublic(e, browse)
	router.RegisterTickets(e, admin, trade, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, genesis=%s)", addr, cfg.Env, cfg.GenesisIdentity)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}

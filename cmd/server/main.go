package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matria-app/matria/internal/config"
	"github.com/matria-app/matria/internal/httpapi"
	"github.com/matria-app/matria/internal/httpapi/handlers"
	"github.com/matria-app/matria/internal/localstore"
	"github.com/matria-app/matria/internal/remote"
	"github.com/matria-app/matria/internal/store/rabbitmq"
	"github.com/matria-app/matria/internal/store/redisstore"
)

func listenAddr() string {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		return v
	}
	return ":8080"
}

func main() {
	cfg := config.Load()

	store, err := localstore.Open(cfg.LocalStorePath)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer store.Close()

	db := remote.Connect(cfg.DBDSN)
	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	var rabbit *rabbitmq.Publisher
	if p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Printf("rabbit unavailable, sync runs inline: %v", err)
	} else {
		rabbit = p
		defer rabbit.Close()
	}

	h := handlers.NewHandler(db, cfg, rds, store, rabbit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go maintenanceLoop(ctx, h, cfg)

	srv := &http.Server{
		Addr:    listenAddr(),
		Handler: httpapi.NewRouter(h, cfg),
	}

	go func() {
		log.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("server shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// maintenanceLoop prunes old local records and enqueues background sync
// passes. Both are best effort; failures only get logged.
func maintenanceLoop(ctx context.Context, h *handlers.Handler, cfg config.Config) {
	cleanupTick := time.NewTicker(cfg.CleanupInterval)
	defer cleanupTick.Stop()
	syncTick := time.NewTicker(cfg.SyncInterval)
	defer syncTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-cleanupTick.C:
			if n, err := h.Sessions.CleanupOld(); err != nil {
				log.Printf("[Maintenance] session cleanup: %v", err)
			} else if n > 0 {
				log.Printf("[Maintenance] pruned %d old sessions", n)
			}
			if n, err := h.Convs.CleanupOld(); err != nil {
				log.Printf("[Maintenance] conversation cleanup: %v", err)
			} else if n > 0 {
				log.Printf("[Maintenance] pruned %d old conversations", n)
			}

		case <-syncTick.C:
			if h.Rabbit != nil {
				for _, kind := range []rabbitmq.SyncKind{rabbitmq.SyncSessions, rabbitmq.SyncConversations} {
					if err := h.Rabbit.PublishSyncJob(ctx, kind); err != nil {
						log.Printf("[Maintenance] enqueue sync kind=%s err=%v", kind, err)
					}
				}
				continue
			}
			sessRep := h.Syncer.SyncSessions(ctx)
			convRep := h.Syncer.SyncConversations(ctx)
			if sessRep.SyncedCount+sessRep.FailedCount+convRep.SyncedCount+convRep.FailedCount > 0 {
				log.Printf("[Maintenance] sync sessions=%+v conversations=%+v", sessRep, convRep)
			}
		}
	}
}

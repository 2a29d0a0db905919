package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/matria-app/matria/internal/config"
	"github.com/matria-app/matria/internal/conversation"
	"github.com/matria-app/matria/internal/localstore"
	"github.com/matria-app/matria/internal/remote"
	"github.com/matria-app/matria/internal/session"
	"github.com/matria-app/matria/internal/store/rabbitmq"
	"github.com/matria-app/matria/internal/syncer"
	amqp "github.com/rabbitmq/amqp091-go"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	store, err := localstore.Open(cfg.LocalStorePath)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer store.Close()

	gdb := remote.Connect(cfg.DBDSN)

	s := syncer.New(
		remote.NewRepo(gdb),
		session.NewManager(store),
		conversation.NewManager(store),
	)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil)
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	// strict concurrency control
	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("syncworker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.SyncJobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.Kind == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				rep, err := handleSyncJob(ctx, s, m.Kind)
				if err != nil {
					log.Printf("worker=%d sync %s failed cost=%s err=%v", workerID, m.Kind, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}
				if rep.SyncedCount+rep.FailedCount > 0 {
					log.Printf("worker=%d sync %s synced=%d failed=%d cost=%s",
						workerID, m.Kind, rep.SyncedCount, rep.FailedCount, time.Since(start))
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed kind=%s err=%v", workerID, m.Kind, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("syncworker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func handleSyncJob(ctx context.Context, s *syncer.Syncer, kind rabbitmq.SyncKind) (syncer.Report, error) {
	switch kind {
	case rabbitmq.SyncSessions:
		return s.SyncSessions(ctx), nil
	case rabbitmq.SyncConversations:
		return s.SyncConversations(ctx), nil
	default:
		return syncer.Report{}, errUnknownKind(kind)
	}
}

type errUnknownKind rabbitmq.SyncKind

func (e errUnknownKind) Error() string {
	return "unknown sync kind: " + string(e)
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"matchd/api/httpserver"
	"matchd/domain/orderbook"
	"matchd/infra/outbox"
	"matchd/infra/sequence"
	"matchd/infra/wal"
	"matchd/jobs/broadcaster"
	"matchd/jobs/feed"
	"matchd/pkg/config"
	"matchd/pkg/logger"
	"matchd/service"
	"matchd/snapshot"
)

func main() {
	var cfg config.Config
	config.MustLoad(&cfg)

	logg, err := logger.NewLogger()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logg.Sync()

	// ---------------- Durability ----------------

	w, err := wal.Open(wal.Config{
		Dir:         cfg.WAL.Dir,
		SegmentSize: cfg.WAL.SegmentSize,
	})
	if err != nil {
		log.Fatalf("wal init failed: %v", err)
	}
	defer w.Close()

	box, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		log.Fatalf("outbox init failed: %v", err)
	}
	defer box.Close()

	// ---------------- Domain ----------------

	seq := sequence.New(0)
	book := orderbook.New(seq)

	svc := service.NewOrderService(
		book,
		seq,
		w,
		box,
		&snapshot.Writer{Dir: cfg.Snapshot.Dir},
		logg,
	)

	if err := svc.Recover(cfg.Snapshot.Dir); err != nil {
		log.Fatalf("recovery failed: %v", err)
	}

	// ---------------- Background Jobs ----------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go svc.RunSnapshotJob(ctx, cfg.Snapshot.Interval)

	bc, err := broadcaster.New(box, cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.Broadcast.Interval, logg)
	if err != nil {
		log.Fatalf("broadcaster init failed: %v", err)
	}
	defer bc.Close()
	go bc.Run(ctx)

	orderFeed := feed.New(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.GroupID, svc, logg)
	defer orderFeed.Close()
	go func() {
		if err := orderFeed.Run(ctx); err != nil {
			logg.Error(err, logger.Field{Key: "job", Value: "order feed"})
			stop()
		}
	}()

	// ---------------- HTTP + WS ----------------

	srv := httpserver.NewServer(cfg.HTTPAddr, svc, logg)
	go func() {
		if err := srv.Start(); err != nil {
			logg.Error(err, logger.Field{Key: "component", Value: "http"})
			stop()
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error(err, logger.Field{Key: "component", Value: "http"})
	}

	// final snapshot so the next start replays a short tail
	if err := svc.WriteSnapshot(); err != nil {
		logg.Error(err, logger.Field{Key: "job", Value: "snapshot"})
	}
}

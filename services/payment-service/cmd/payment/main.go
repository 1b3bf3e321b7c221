package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/you/trip-booking/pkg/config"
	"github.com/you/trip-booking/pkg/db"
	"github.com/you/trip-booking/pkg/idgen"
	"github.com/you/trip-booking/pkg/mq"
	"github.com/you/trip-booking/pkg/obs"
	"github.com/you/trip-booking/pkg/outbox"
	"github.com/you/trip-booking/pkg/web"
	"github.com/you/trip-booking/services/payment-service/internal/gateway"
	httpx "github.com/you/trip-booking/services/payment-service/internal/http"
	"github.com/you/trip-booking/services/payment-service/internal/repository"
	"github.com/you/trip-booking/services/payment-service/internal/service"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	_ = godotenv.Load(".env")
	cfg := must(config.Load())
	idgen.Init(1)

	shutdownTracer := obs.InitTracer("payment-service")
	defer shutdownTracer(context.Background())

	gdb := db.Open(cfg.PGPaymentDSN)
	repo := repository.NewPaymentRepo(gdb)
	outboxRepo := outbox.NewRepo(gdb)
	must(0, repo.Migrate())
	must(0, outboxRepo.Migrate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := must(mq.NewPublisher(cfg.RabbitURL, cfg.PaymentExchange))
	defer pub.Close()
	dispatcher := outbox.NewDispatcher(outboxRepo, pub, "payment", cfg.OutboxInterval, cfg.OutboxBatchSize, cfg.OutboxMaxRetries)
	go dispatcher.Start(ctx)

	svc := service.NewPaymentSvc(repo, gateway.New())
	r := web.NewEngine("payment-service")
	httpx.NewHandler(svc).Register(r)

	srv := &http.Server{Addr: cfg.PaymentHTTPAddr, Handler: r}
	go func() {
		log.Println("[payment] listening on", cfg.PaymentHTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Println("[payment] stopped")
}

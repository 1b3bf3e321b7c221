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
	"github.com/you/trip-booking/pkg/events"
	"github.com/you/trip-booking/pkg/mq"
	"github.com/you/trip-booking/pkg/obs"
	"github.com/you/trip-booking/pkg/web"
	httpx "github.com/you/trip-booking/services/notification-service/internal/http"
	"github.com/you/trip-booking/services/notification-service/internal/repository"
	"github.com/you/trip-booking/services/notification-service/internal/service"
	"github.com/you/trip-booking/services/notification-service/internal/worker"
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

	shutdownTracer := obs.InitTracer("notification-service")
	defer shutdownTracer(context.Background())

	gdb := db.Open(cfg.PGNotifyDSN)
	repo := repository.NewNotificationRepo(gdb)
	must(0, repo.Migrate())

	svc := service.NewNotificationSvc(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// booking.* and payment.* -> notifications
	cons := must(mq.NewConsumer(cfg.RabbitURL, "notify.events.q", "notification-service", map[string][]string{
		cfg.BookingExchange: {events.RKBookingCreated, events.RKBookingCancelled},
		cfg.PaymentExchange: {events.RKPaymentCompleted, events.RKPaymentFailed, events.RKPaymentRefunded},
	}))
	defer cons.Close()
	w := worker.NewEventWorker(svc)
	go func() {
		if err := cons.Run(ctx, w.Handle); err != nil {
			log.Printf("[notify] consumer: %v", err)
		}
	}()

	r := web.NewEngine("notification-service")
	httpx.NewHandler(svc).Register(r)

	srv := &http.Server{Addr: cfg.NotifyHTTPAddr, Handler: r}
	go func() {
		log.Println("[notify] listening on", cfg.NotifyHTTPAddr)
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
	log.Println("[notify] stopped")
}

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
	"github.com/you/trip-booking/pkg/outbox"
	"github.com/you/trip-booking/pkg/web"
	"github.com/you/trip-booking/services/booking-service/internal/consumer"
	"github.com/you/trip-booking/services/booking-service/internal/domain"
	httpx "github.com/you/trip-booking/services/booking-service/internal/http"
	"github.com/you/trip-booking/services/booking-service/internal/repository"
	"github.com/you/trip-booking/services/booking-service/internal/service"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

var seedItems = []domain.CatalogItem{
	{Name: "Grand Palace Hotel - Deluxe Room", Category: domain.CategoryHotel, UnitPrice: 12000, Remaining: 100, Location: "Bangkok"},
	{Name: "Seaside Resort - Ocean View", Category: domain.CategoryHotel, UnitPrice: 18500, Remaining: 60, Location: "Phuket"},
	{Name: "BKK-SIN Morning Flight", Category: domain.CategoryFlight, UnitPrice: 9900, Remaining: 180, Location: "Bangkok"},
	{Name: "SIN-BKK Evening Flight", Category: domain.CategoryFlight, UnitPrice: 10400, Remaining: 180, Location: "Singapore"},
	{Name: "River Festival - General Admission", Category: domain.CategoryEvent, UnitPrice: 4500, Remaining: 500, Location: "Bangkok"},
}

func main() {
	_ = godotenv.Load(".env")
	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("booking-service")
	defer shutdownTracer(context.Background())

	gdb := db.Open(cfg.PGBookingDSN)
	catalogRepo := repository.NewCatalogRepo(gdb)
	bookingRepo := repository.NewBookingRepo(gdb)
	outboxRepo := outbox.NewRepo(gdb)
	must(0, catalogRepo.Migrate())
	must(0, bookingRepo.Migrate())
	must(0, outboxRepo.Migrate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	must(0, catalogRepo.Seed(ctx, seedItems))

	// outbox -> booking.exchange
	pub := must(mq.NewPublisher(cfg.RabbitURL, cfg.BookingExchange))
	defer pub.Close()
	dispatcher := outbox.NewDispatcher(outboxRepo, pub, "booking", cfg.OutboxInterval, cfg.OutboxBatchSize, cfg.OutboxMaxRetries)
	go dispatcher.Start(ctx)

	// payment.* -> booking payment status
	cons := must(mq.NewConsumer(cfg.RabbitURL, "booking.payment.q", "booking-service", map[string][]string{
		cfg.PaymentExchange: {events.RKPaymentCompleted, events.RKPaymentFailed, events.RKPaymentRefunded},
	}))
	defer cons.Close()
	pc := consumer.NewPaymentConsumer(bookingRepo)
	go func() {
		if err := cons.Run(ctx, pc.Handle); err != nil {
			log.Printf("[booking] consumer: %v", err)
		}
	}()

	svc := service.NewBookingSvc(catalogRepo, bookingRepo)
	r := web.NewEngine("booking-service")
	httpx.NewHandler(svc).Register(r)

	srv := &http.Server{Addr: cfg.BookingHTTPAddr, Handler: r}
	go func() {
		log.Println("[booking] listening on", cfg.BookingHTTPAddr)
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
	log.Println("[booking] stopped")
}

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
	"github.com/you/trip-booking/pkg/obs"
	"github.com/you/trip-booking/pkg/web"
	"github.com/you/trip-booking/services/gateway/internal/middlewares"
	"github.com/you/trip-booking/services/gateway/internal/proxy"
	"github.com/you/trip-booking/services/gateway/internal/registry"
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

	shutdownTracer := obs.InitTracer("gateway")
	defer shutdownTracer(context.Background())

	reg := registry.New()
	must(0, reg.Add("account", config.SplitURLs(cfg.AccountURLs)))
	must(0, reg.Add("booking", config.SplitURLs(cfg.BookingURLs)))
	must(0, reg.Add("payment", config.SplitURLs(cfg.PaymentURLs)))
	must(0, reg.Add("notification", config.SplitURLs(cfg.NotifyURLs)))

	var counter middlewares.Counter
	if cfg.RedisAddr != "" {
		counter = middlewares.NewRedisCounter(cfg.RedisAddr)
	} else {
		log.Println("[gateway] no redis configured, using in-memory rate counter")
		counter = middlewares.NewMemoryCounter()
	}

	r := web.NewEngine("gateway")
	r.Use(middlewares.RateLimit(counter, cfg.RateLimitMax, cfg.RateLimitWindow))

	p := proxy.New(reg, []proxy.Route{
		{Prefix: "/api/users", Service: "account", Rewrite: "", Label: "Account service"},
		{Prefix: "/api/items", Service: "booking", Rewrite: "/items", Label: "Booking service"},
		{Prefix: "/api/bookings", Service: "booking", Rewrite: "/bookings", Label: "Booking service"},
		{Prefix: "/api/payments", Service: "payment", Rewrite: "/payments", Label: "Payment service"},
		{Prefix: "/api/notifications", Service: "notification", Rewrite: "/notifications", Label: "Notification service"},
	})
	p.Register(r)

	srv := &http.Server{Addr: cfg.GatewayHTTPAddr, Handler: r}
	go func() {
		log.Println("[gateway] listening on", cfg.GatewayHTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Println("[gateway] stopped")
}

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
	"github.com/you/trip-booking/pkg/obs"
	"github.com/you/trip-booking/pkg/web"
	httpx "github.com/you/trip-booking/services/account-service/internal/http"
	"github.com/you/trip-booking/services/account-service/internal/repository"
	"github.com/you/trip-booking/services/account-service/internal/service"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	shutdownTracer := obs.InitTracer("account-service")
	defer shutdownTracer(context.Background())

	gdb := db.Open(cfg.PGAccountDSN)
	repo := repository.NewAccountRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	svc := service.NewAccountSvc(repo, time.Duration(cfg.JWTExpireMin)*time.Minute)

	r := web.NewEngine("account-service")
	httpx.NewHandler(svc).Register(r)

	srv := &http.Server{Addr: cfg.AccountHTTPAddr, Handler: r}
	go func() {
		log.Println("[account] listening on", cfg.AccountHTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Println("[account] stopped")
}

package main

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/dormhub/dormitory-admin/internal/config"
	"github.com/dormhub/dormitory-admin/internal/database"
	"github.com/dormhub/dormitory-admin/internal/handler"
	"github.com/dormhub/dormitory-admin/internal/queue"
	"github.com/dormhub/dormitory-admin/internal/repository"
	"github.com/dormhub/dormitory-admin/internal/router"
	"github.com/dormhub/dormitory-admin/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, caching and rate limiting disabled")
	}

	// Consume lifecycle events in the background.  The consumer keeps
	// retrying on broker failures and never takes the server down.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	coord := repository.NewCoordinator(db)
	rooms := repository.NewRoomRepo(db)
	students := repository.NewStudentRepo(db)
	transfers := repository.NewTransferRepo(db)
	maintenances := repository.NewMaintenanceRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	payments := repository.NewPaymentRepo(db)

	registry := service.NewRoomRegistry(rooms, coord)
	transferWF := service.NewTransferWorkflow(transfers, students, rooms, registry, coord)
	maintenanceWF := service.NewMaintenanceWorkflow(maintenances, rooms, registry, coord)
	ledger := service.NewBillingLedger(invoices, payments, students, rooms, coord)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Rooms:       handler.NewRoomHandler(registry),
		Transfers:   handler.NewTransferHandler(transferWF),
		Maintenance: handler.NewMaintenanceHandler(maintenanceWF),
		Billing:     handler.NewBillingHandler(ledger),
	}, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

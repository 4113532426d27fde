package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"parkfinder/internal/api"
	"parkfinder/internal/config"
	"parkfinder/internal/db"
	"parkfinder/internal/logging"
	"parkfinder/internal/repository"
	"parkfinder/internal/service"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Invalid configuration: %v", err)
	}
	logging.Init(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logging.Logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logging.Logger.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	database := client.Database(cfg.MongoDB)
	lotRepo := repository.NewParkingLotRepository(database)
	reservationRepo := repository.NewReservationRepository(database)
	svc := service.NewParkingLotService(lotRepo, reservationRepo)
	handler := api.NewParkingLotHandler(svc)

	r := mux.NewRouter()
	r.Use(api.RequestLogger)
	r.HandleFunc("/parking-lot", handler.ListParkingLots).Methods("GET")
	r.HandleFunc("/parking-lot", handler.CreateParkingLot).Methods("POST")
	r.HandleFunc("/parking-lot/{id}", handler.UpdateParkingLot).Methods("PUT")
	r.HandleFunc("/parking-lot/{id}", handler.ReserveParkingLot).Methods("PATCH")
	r.HandleFunc("/parking-lot/{id}", handler.DeleteParkingLot).Methods("DELETE")

	if cfg.SweepSchedule != "" {
		sweeper := service.NewSweeper(reservationRepo, time.Duration(cfg.SweepRetentionDays)*24*time.Hour)
		c := cron.New()
		if _, err := c.AddFunc(cfg.SweepSchedule, func() { sweeper.Run(context.Background()) }); err != nil {
			logging.Logger.Fatalf("Invalid SWEEP_SCHEDULE: %v", err)
		}
		c.Start()
		defer c.Stop()
		logging.Logger.Infof("Reservation sweep scheduled: %s", cfg.SweepSchedule)
	}

	origins := []string{"*"}
	if cfg.WebURL != "" {
		origins = []string{cfg.WebURL}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	logging.Logger.Infof("API started on port %s", cfg.Port)
	logging.Logger.Fatal(http.ListenAndServe(":"+cfg.Port, cors(r)))
}

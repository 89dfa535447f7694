package main

import (
	"context"
	"fmt"
	"os"

	"gitlab.com/dirk.krummacker/users-service/internal/config"
	"gitlab.com/dirk.krummacker/users-service/internal/logger"
	"gitlab.com/dirk.krummacker/users-service/internal/service"
	"gitlab.com/dirk.krummacker/users-service/internal/store"
)

// Usage example on the command line:
// > PORT=8080 DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Println("could not create logger", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := store.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	s := service.SetupService(db.DB, log)
	router := s.SetupHttpRouter(cfg)
	log.Info("listening", "port", cfg.Port)
	if err := router.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/opsdesk/reservations-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "bookingctl", Output: os.Stderr})
	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	rt := newRuntime(os.Stdout, logg)
	err := newRootCmd(rt).Execute()
	if cerr := rt.close(); cerr != nil {
		logg.Error(context.Background(), "error closing connections", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

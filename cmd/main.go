package main

import (
	"log"
	"os"

	"github.com/chiapei/trailgo/internal/logger"
	"github.com/chiapei/trailgo/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables.")
	}

	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	if err := server.Start(); err != nil {
		logger.Fatal("server failed to start", "error", err)
	}
}

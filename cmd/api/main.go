package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"gobias/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[API] no .env file loaded: %v", err)
	}

	port := os.Getenv("GOBIAS_PORT")
	if port == "" {
		port = "8080"
	}

	server := ui.NewServer()
	if err := server.ListenAndServe(":" + port); err != nil {
		log.Fatalf("[API] server exited: %v", err)
	}
}

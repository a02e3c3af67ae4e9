package main

import (
	"log"

	"github.com/MrSnakeDoc/tabwarden/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ tabwarden failed to start: %v", err)
	}
}

package main

import (
	"log"

	"github.com/MrSnakeDoc/harbor/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("harbor failed: %v", err)
	}
}

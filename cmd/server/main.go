package main

import (
	"log"

	transport "github.com/profilehub/backend/internal/transport/http"
)

func main() {
	if err := transport.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

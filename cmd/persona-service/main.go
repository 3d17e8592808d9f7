package main

import (
	"os"

	"github.com/perscribe/persona-backend/personaservice"
)

func main() {
	if err := personaservice.Run(); err != nil {
		os.Exit(1)
	}
}

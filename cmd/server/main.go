package main

import (
	"log"

	"github.com/m3rciful/residentbot/core/cmd"
)

func main() {
	if err := cmd.Run(cmd.Options{Serve: cmd.ServeHTTP}); err != nil {
		log.Fatal(err)
	}
}

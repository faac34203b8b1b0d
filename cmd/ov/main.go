package main

import (
	"log"

	"opvault/cmd/ov/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatal(err)
	}
}

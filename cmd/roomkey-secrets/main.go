package main

import (
	"flag"
	"log"
	"os"

	"github.com/aussiebroadwan/roomkey/internal/tools/secrets"
)

func main() {
	cfg, err := secrets.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := secrets.Run(cfg, os.Stdout); err != nil {
		log.Fatalf("generate secrets: %v", err)
	}
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/educates/lookup-service/cmd"
	"github.com/educates/lookup-service/internal/server"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		log.Println(fmt.Errorf("%s error: %v", server.ProgramName, err))
		os.Exit(1)
	}
}

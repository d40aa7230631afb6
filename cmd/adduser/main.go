package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/shelterauth/internal/admincli"
	"github.com/dmitrijs2005/shelterauth/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := admincli.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}

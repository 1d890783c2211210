package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophblog/internal/blogctl"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return err
	}

	app, db, err := blogctl.NewApp(cfg, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer db.Close()

	return app.Run(ctx, os.Args[1:])
}

package main

import (
	"context"
	"log"
	"os"

	"aaronromeo.com/sievefilters/internal/cli"
)

func main() {
	app := cli.NewApp(context.Background(), cli.DefaultDeps())
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

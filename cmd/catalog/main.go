package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// @title                       Product Catalog API
// @version                     1.0
// @description                 JSON variants of the product catalog pages. Send Accept: application/json to any page route.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app := &cli.App{
		Name:  "catalog",
		Usage: "server-rendered product catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "optional dotenv file read before the environment",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

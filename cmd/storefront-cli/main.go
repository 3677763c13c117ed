package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time
var Version = "dev"

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "storefront-cli",
		Usage:   "Storefront administration tool",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Base URL of the storefront server",
				EnvVars: []string{"STOREFRONT_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Admin session token",
				EnvVars: []string{"STOREFRONT_TOKEN"},
			},
		},
		Commands: []*cli.Command{
			quoteCommand(),
			tokenCommand(),
			ordersCommand(),
			inviteCommand(),
			healthCommand(),
		},
	}
}

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:      "health",
		Usage:     "Check server health",
		ArgsUsage: "[live|ready]",
		Action: func(c *cli.Context) error {
			sub := "ready"
			if c.NArg() > 0 {
				sub = c.Args().First()
			}

			var path string
			switch sub {
			case "live":
				path = "/healthz"
			case "ready":
				path = "/ready"
			default:
				return fmt.Errorf("unknown health subcommand: %s", sub)
			}

			resp, err := newClient(c).get(c.Context, path)
			if err != nil {
				return err
			}
			return prettyPrint(c.App.Writer, resp)
		},
	}
}

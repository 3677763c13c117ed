package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func inviteCommand() *cli.Command {
	return &cli.Command{
		Name:      "invite",
		Usage:     "Invite someone to create an account",
		ArgsUsage: "<email>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Display name"},
			&cli.BoolFlag{Name: "admin", Usage: "Grant administrator access"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: invite <email>")
			}
			resp, err := newClient(c).post(c.Context, "/api/v1/admin/invitations", map[string]interface{}{
				"email":    c.Args().First(),
				"name":     c.String("name"),
				"is_admin": c.Bool("admin"),
			})
			if err != nil {
				return err
			}
			return prettyPrint(c.App.Writer, resp)
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/Fiedly71/up-to-date-store-sub000/token"
	"github.com/urfave/cli/v2"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Work with recovery and invite tokens",
		Subcommands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "Verify a token's signature and print its payload",
				ArgsUsage: "<token>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "secret", Usage: "Signing secret", EnvVars: []string{"TOKEN_SECRET"}, Required: true},
				},
				Action: tokenInspect,
			},
		},
	}
}

// tokenInspect only checks the signature. Whether the token is still fresh
// depends on the account's current state, which the server checks.
func tokenInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: token inspect <token>")
	}
	signer, err := token.NewSigner([]byte(c.String("secret")))
	if err != nil {
		return err
	}

	p, err := signer.Verify(c.Args().First())
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

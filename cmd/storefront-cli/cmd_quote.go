package main

import (
	"fmt"
	"strconv"

	"github.com/Fiedly71/up-to-date-store-sub000/pricing"
	"github.com/urfave/cli/v2"
)

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "Show the service fee breakdown for a price",
		ArgsUsage: "<price>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "rate", Usage: "Display conversion rate", EnvVars: []string{"DISPLAY_RATE"}, Value: pricing.DefaultDisplayRate},
			&cli.StringFlag{Name: "currency", Usage: "Display currency", EnvVars: []string{"DISPLAY_CURRENCY"}, Value: pricing.DefaultDisplayCurrency},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: quote <price>")
			}
			price, err := strconv.ParseFloat(c.Args().First(), 64)
			if err != nil {
				return fmt.Errorf("invalid price %q", c.Args().First())
			}

			q, err := pricing.NewConverter(c.Float64("rate"), c.String("currency")).Quote(price)
			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Price:   $%s\n", pricing.FormatBase(q.Base))
			fmt.Fprintf(w, "Fee:     $%s (%s)\n", pricing.FormatBase(q.Fee), q.FeeType)
			fmt.Fprintf(w, "Total:   $%s\n", pricing.FormatBase(q.Total))
			fmt.Fprintf(w, "Display: %s\n", q.DisplayText)
			return nil
		},
	}
}

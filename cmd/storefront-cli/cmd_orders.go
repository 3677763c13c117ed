package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/Fiedly71/up-to-date-store-sub000/order"
	"github.com/urfave/cli/v2"
)

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:    "orders",
		Aliases: []string{"order"},
		Usage:   "Manage orders",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List orders",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Only orders in this status"},
					&cli.StringFlag{Name: "account", Usage: "Only orders of this account ID"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of orders"},
				},
				Action: ordersList,
			},
			{
				Name:      "advance",
				Usage:     "Move an order to a new status",
				ArgsUsage: "<id|reference> <status>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "note", Usage: "Note shown in the order history"},
				},
				Action: ordersAdvance,
			},
		},
	}
}

func ordersList(c *cli.Context) error {
	q := url.Values{}
	if s := c.String("status"); s != "" {
		if _, err := order.ParseStatus(s); err != nil {
			return err
		}
		q.Set("status", s)
	}
	if a := c.String("account"); a != "" {
		q.Set("account_id", a)
	}
	if l := c.Int("limit"); l > 0 {
		q.Set("limit", strconv.Itoa(l))
	}

	path := "/api/v1/admin/orders"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	resp, err := newClient(c).get(c.Context, path)
	if err != nil {
		return err
	}
	return prettyPrint(c.App.Writer, resp)
}

func ordersAdvance(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: orders advance <id|reference> <status>")
	}
	st, err := order.ParseStatus(c.Args().Get(1))
	if err != nil {
		return err
	}

	path := "/api/v1/admin/orders/" + url.PathEscape(c.Args().First()) + "/status"
	resp, err := newClient(c).patch(c.Context, path, map[string]string{
		"status": string(st),
		"note":   c.String("note"),
	})
	if err != nil {
		return err
	}
	return prettyPrint(c.App.Writer, resp)
}

package main

import (
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/sdk/core"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/urfave/cli/v2"
)

var eventDetailFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    flagTitle,
		Aliases: []string{"t"},
		Usage:   "The event's title",
	},
	&cli.StringFlag{
		Name:    flagDate,
		Aliases: []string{"d"},
		Usage:   "When the event takes place, e.g. 2024-03-05T14:30",
	},
	&cli.StringFlag{
		Name:  flagDescription,
		Usage: "A description of the event",
	},
	&cli.Int64Flag{
		Name:    flagClient,
		Aliases: []string{"c"},
		Usage:   "The client the event concerns",
	},
	&cli.BoolFlag{
		Name:  flagScan,
		Usage: "Mark the event as a scan appointment",
	},
	&cli.StringFlag{
		Name:    flagFile,
		Aliases: []string{"f"},
		Usage: "A YAML or JSON file containing the event's details; other flags " +
			"override values from the file",
		TakesFile: true,
	},
}

var eventCommand = &cli.Command{
	Name:    "event",
	Usage:   "Manage calendar events",
	Aliases: []string{"events"},
	Subcommands: []*cli.Command{
		{
			Name:   "create",
			Usage:  "Create a new event",
			Flags:  eventDetailFlags,
			Action: eventCreate,
		},
		{
			Name:  "delete",
			Usage: "Delete an event",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagID,
					Aliases:  []string{"i"},
					Usage:    "Delete the specified event (required)",
					Required: true,
				},
				cliFlagYes,
			},
			Action: eventDelete,
		},
		{
			Name:  "get",
			Usage: "Retrieve an event",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagID,
					Aliases:  []string{"i"},
					Usage:    "Retrieve the specified event (required)",
					Required: true,
				},
				cliFlagOutput,
			},
			Action: eventGet,
		},
		{
			Name:  "list",
			Usage: "List events",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    flagDate,
					Aliases: []string{"d"},
					Usage:   "Only list events on the specified day, e.g. 2024-03-05",
				},
				cliFlagOutput,
			},
			Action: eventList,
		},
		{
			Name:  "update",
			Usage: "Update an event",
			Flags: append(
				[]cli.Flag{
					&cli.Int64Flag{
						Name:     flagID,
						Aliases:  []string{"i"},
						Usage:    "Update the specified event (required)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  flagNoClient,
						Usage: "Detach the event from its client",
					},
				},
				eventDetailFlags...,
			),
			Action: eventUpdate,
		},
	},
}

func eventCreate(c *cli.Context) error {
	event := core.Event{}
	if err := applyEventFlags(c, &event); err != nil {
		return err
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	id, err := client.Events().Create(c.Context, event)
	if err != nil {
		return err
	}

	fmt.Printf("Created event %d.\n", id)
	return nil
}

func eventList(c *cli.Context) error {
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	selector := core.EventsSelector{}
	if date := c.String(flagDate); date != "" {
		var err error
		if selector.Date, err = parseDate(date); err != nil {
			return err
		}
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	events, err := client.Events().List(c.Context, selector)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println("No events found.")
		return nil
	}

	if err := printOutput(output, events, func(table *uitable.Table) {
		table.AddRow("ID", "DATE", "TITLE", "CLIENT", "SCAN")
		for _, event := range events {
			table.AddRow(
				event.ID,
				formatTime(&event.Date),
				event.Title,
				event.ClientName,
				event.IsScan,
			)
		}
	}); err != nil {
		return errors.Wrap(err, "error formatting output from list events operation")
	}
	return nil
}

func eventGet(c *cli.Context) error {
	id := c.Int64(flagID)
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	event, err := client.Events().Get(c.Context, id)
	if err != nil {
		return err
	}

	if err := printOutput(output, event, func(table *uitable.Table) {
		table.AddRow("ID", "DATE", "TITLE", "CLIENT", "SCAN", "CREATED")
		table.AddRow(
			event.ID,
			formatTime(&event.Date),
			event.Title,
			event.ClientName,
			event.IsScan,
			formatTime(event.Created),
		)
		if event.Description != "" {
			table.AddRow()
			table.AddRow("DESCRIPTION")
			table.AddRow(event.Description)
		}
	}); err != nil {
		return errors.Wrap(err, "error formatting output from get event operation")
	}
	return nil
}

func eventUpdate(c *cli.Context) error {
	id := c.Int64(flagID)

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	// Updates replace the whole event, so start from what is there now.
	event, err := client.Events().Get(c.Context, id)
	if err != nil {
		return err
	}
	if err = applyEventFlags(c, &event); err != nil {
		return err
	}
	if c.Bool(flagNoClient) {
		event.ClientID = nil
	}

	if err := client.Events().Update(c.Context, id, event); err != nil {
		return err
	}

	fmt.Printf("Updated event %d.\n", id)
	return nil
}

func eventDelete(c *cli.Context) error {
	id := c.Int64(flagID)

	confirmed, err := confirmed(c)
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	if err := client.Events().Delete(c.Context, id); err != nil {
		return err
	}

	fmt.Printf("Event %d deleted.\n", id)
	return nil
}

// applyEventFlags overlays the event's details from the --file flag and then
// from any other flags that were set.
func applyEventFlags(c *cli.Context, event *core.Event) error {
	if filename := c.String(flagFile); filename != "" {
		if err := readObjectFile(filename, event); err != nil {
			return err
		}
	}
	if c.IsSet(flagTitle) {
		event.Title = c.String(flagTitle)
	}
	if c.IsSet(flagDate) {
		date, err := parseDate(c.String(flagDate))
		if err != nil {
			return err
		}
		event.Date = meta.NewTime(date.In(time.UTC))
	}
	if c.IsSet(flagDescription) {
		event.Description = c.String(flagDescription)
	}
	if c.IsSet(flagClient) {
		clientID := c.Int64(flagClient)
		event.ClientID = &clientID
	}
	if c.IsSet(flagScan) {
		event.IsScan = c.Bool(flagScan)
	}
	return nil
}

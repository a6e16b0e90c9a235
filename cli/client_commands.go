package main

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/sdk/core"
	"github.com/urfave/cli/v2"
)

var clientCommand = &cli.Command{
	Name:    "client",
	Usage:   "Manage clients",
	Aliases: []string{"clients"},
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Create a new client",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    flagFile,
					Aliases: []string{"f"},
					Usage: "A YAML or JSON file containing the client's details " +
						"(required)",
					Required:  true,
					TakesFile: true,
				},
			},
			Action: clientCreate,
		},
		{
			Name:  "delete",
			Usage: "Delete a client",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagID,
					Aliases:  []string{"i", flagClient, "c"},
					Usage:    "Delete the specified client (required)",
					Required: true,
				},
				cliFlagYes,
			},
			Action: clientDelete,
		},
		{
			Name:  "get",
			Usage: "Retrieve a client",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagID,
					Aliases:  []string{"i", flagClient, "c"},
					Usage:    "Retrieve the specified client (required)",
					Required: true,
				},
				cliFlagOutput,
			},
			Action: clientGet,
		},
		{
			Name:  "list",
			Usage: "List clients",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: clientList,
		},
		{
			Name:  "update",
			Usage: "Update a client",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagID,
					Aliases:  []string{"i", flagClient, "c"},
					Usage:    "Update the specified client (required)",
					Required: true,
				},
				&cli.StringFlag{
					Name:    flagFile,
					Aliases: []string{"f"},
					Usage: "A YAML or JSON file containing the client's updated " +
						"details (required)",
					Required:  true,
					TakesFile: true,
				},
			},
			Action: clientUpdate,
		},
	},
}

func clientCreate(c *cli.Context) error {
	filename := c.String(flagFile)

	newClient := core.Client{}
	if err := readObjectFile(filename, &newClient); err != nil {
		return err
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	id, err := client.Clients().Create(c.Context, newClient)
	if err != nil {
		return err
	}

	fmt.Printf("Created client %d (%s).\n", id, newClient.FullName())
	return nil
}

func clientList(c *cli.Context) error {
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	clients, err := client.Clients().List(c.Context)
	if err != nil {
		return err
	}

	if len(clients) == 0 {
		fmt.Println("No clients found.")
		return nil
	}

	if err := printOutput(output, clients, func(table *uitable.Table) {
		table.AddRow("ID", "NAME", "AGE", "TELEPHONE", "EMAIL", "REASON")
		for _, cl := range clients {
			table.AddRow(
				cl.ID,
				cl.FullName(),
				cl.Age,
				cl.Telephone,
				cl.Email,
				cl.Reason,
			)
		}
	}); err != nil {
		return errors.Wrap(err, "error formatting output from list clients operation")
	}
	return nil
}

func clientGet(c *cli.Context) error {
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

	cl, err := client.Clients().Get(c.Context, id)
	if err != nil {
		return err
	}

	if err := printOutput(output, cl, func(table *uitable.Table) {
		table.AddRow("ID", "NAME", "AGE", "GENDER", "TELEPHONE", "EMAIL", "CREATED")
		table.AddRow(
			cl.ID,
			cl.FullName(),
			cl.Age,
			cl.Gender,
			cl.Telephone,
			cl.Email,
			formatTime(cl.Created),
		)
		table.AddRow()
		table.AddRow("REASON")
		table.AddRow(cl.Reason)
		if cl.PreviousConditions != "" {
			table.AddRow()
			table.AddRow("PREVIOUS CONDITIONS")
			table.AddRow(cl.PreviousConditions)
		}
	}); err != nil {
		return errors.Wrap(err, "error formatting output from get client operation")
	}
	return nil
}

func clientUpdate(c *cli.Context) error {
	id := c.Int64(flagID)
	filename := c.String(flagFile)

	updated := core.Client{}
	if err := readObjectFile(filename, &updated); err != nil {
		return err
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	if err := client.Clients().Update(c.Context, id, updated); err != nil {
		return err
	}

	fmt.Printf("Updated client %d.\n", id)
	return nil
}

func clientDelete(c *cli.Context) error {
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

	if err := client.Clients().Delete(c.Context, id); err != nil {
		return err
	}

	fmt.Printf("Client %d deleted.\n", id)
	return nil
}

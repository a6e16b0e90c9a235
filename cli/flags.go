package main

import "github.com/urfave/cli/v2"

const (
	flagApple         = "apple"
	flagBrowse        = "browse"
	flagClient        = "client"
	flagDate          = "date"
	flagDescription   = "description"
	flagDir           = "dir"
	flagEmail         = "email"
	flagFile          = "file"
	flagFirstName     = "first-name"
	flagGoogle        = "google"
	flagID            = "id"
	flagIdentityToken = "identity-token"
	flagInsecure      = "insecure"
	flagLastName      = "last-name"
	flagNoClient      = "no-client"
	flagOutput        = "output"
	flagPassword      = "password"
	flagReason        = "reason"
	flagScan          = "scan"
	flagServer        = "server"
	flagTitle         = "title"
	flagVerbose       = "verbose"
	flagYes           = "yes"
)

var (
	cliFlagOutput = &cli.StringFlag{
		Name:    flagOutput,
		Aliases: []string{"o"},
		Usage: "Return output in the specified format; supported formats: table, " +
			"yaml, json",
		Value: "table",
	}
	cliFlagYes = &cli.BoolFlag{
		Name:    flagYes,
		Aliases: []string{"y"},
		Usage:   "Non-interactively confirm the action",
	}
)

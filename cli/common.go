package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/ghodss/yaml"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/sdk/meta"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ssh/terminal"
)

const (
	outputFormatJSON  = "json"
	outputFormatTable = "table"
	outputFormatYAML  = "yaml"
)

func validateOutputFormat(outputFormat string) error {
	switch strings.ToLower(outputFormat) {
	case outputFormatTable, outputFormatYAML, outputFormatJSON:
		return nil
	default:
		return errors.Errorf("unknown output format %q", outputFormat)
	}
}

// printOutput writes obj to stdout in the specified format. For tables, obj is
// handed to addRows.
func printOutput(
	outputFormat string,
	obj interface{},
	addRows func(*uitable.Table),
) error {
	switch strings.ToLower(outputFormat) {
	case outputFormatTable:
		table := uitable.New()
		addRows(table)
		fmt.Println(table)
	case outputFormatYAML:
		yamlBytes, err := yaml.Marshal(obj)
		if err != nil {
			return err
		}
		fmt.Println(string(yamlBytes))
	case outputFormatJSON:
		prettyJSON, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(prettyJSON))
	}
	return nil
}

func confirmed(c *cli.Context) (bool, error) {
	confirmed := c.Bool(flagYes)
	if confirmed {
		return true, nil
	}
	if !isInteractive() {
		return false, errors.Errorf(
			"confirmation is required; use --%s to confirm non-interactively",
			flagYes,
		)
	}
	if err := survey.AskOne(
		&survey.Confirm{
			Message: "This action cannot be undone. Are you sure?",
		},
		&confirmed,
	); err != nil {
		return false, errors.Wrap(err, "error confirming action")
	}
	fmt.Println()
	return confirmed, nil
}

func isInteractive() bool {
	return terminal.IsTerminal(int(os.Stdin.Fd())) &&
		terminal.IsTerminal(int(os.Stdout.Fd()))
}

// readObjectFile unmarshals the YAML or JSON file at path into obj.
func readObjectFile(path string, obj interface{}) error {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "error reading file %s", path)
	}
	jsonBytes, err := yaml.YAMLToJSON(fileBytes)
	if err != nil {
		return errors.Wrapf(err, "error converting file %s to JSON", path)
	}
	if err := json.Unmarshal(jsonBytes, obj); err != nil {
		return errors.Wrapf(err, "error parsing file %s", path)
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate parses a date, with or without a time of day, given on the
// command line. Dates without an offset are local.
func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf(
		"unrecognized date %q; try a format such as 2024-03-05 or "+
			"2024-03-05T14:30",
		value,
	)
}

func formatTime(t *meta.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

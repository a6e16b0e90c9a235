package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/praxis-health/praxis/internal/scans"
	"github.com/praxis-health/praxis/sdk/core"
	"github.com/urfave/cli/v2"
)

var cliFlagDir = &cli.StringFlag{
	Name:    flagDir,
	Usage:   "Save the report to the specified directory",
	Value:   ".",
	EnvVars: []string{"PRAXIS_REPORT_DIR"},
}

var scanCommand = &cli.Command{
	Name:    "scan",
	Usage:   "Manage mobility scans",
	Aliases: []string{"scans"},
	Subcommands: []*cli.Command{
		{
			Name:  "delete",
			Usage: "Delete a scan",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagID,
					Aliases:  []string{"i"},
					Usage:    "Delete the specified scan (required)",
					Required: true,
				},
				cliFlagYes,
			},
			Action: scanDelete,
		},
		{
			Name:  "get",
			Usage: "Retrieve a scan",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagID,
					Aliases:  []string{"i"},
					Usage:    "Retrieve the specified scan (required)",
					Required: true,
				},
				cliFlagOutput,
			},
			Action: scanGet,
		},
		{
			Name:  "launch",
			Usage: "Scan a client and download the report once it is ready",
			Description: "Submits a scan request, waits for the scan to " +
				"complete, and saves its PDF report.",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagClient,
					Aliases:  []string{"c"},
					Usage:    "Scan the specified client (required)",
					Required: true,
				},
				&cli.StringFlag{
					Name:     flagReason,
					Aliases:  []string{"r"},
					Usage:    "Why the scan is being performed (required)",
					Required: true,
				},
				cliFlagDir,
			},
			Action: scanLaunch,
		},
		{
			Name:  "list",
			Usage: "List scans",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: scanList,
		},
		{
			Name:  "report",
			Usage: "Download a scan's report",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagID,
					Aliases:  []string{"i"},
					Usage:    "Download the report of the specified scan (required)",
					Required: true,
				},
				cliFlagDir,
			},
			Action: scanReport,
		},
		{
			Name:  "status",
			Usage: "Show the status of a client's latest scan",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     flagClient,
					Aliases:  []string{"c"},
					Usage:    "Show the latest scan of the specified client (required)",
					Required: true,
				},
				cliFlagOutput,
			},
			Action: scanStatus,
		},
	},
}

func scanLaunch(c *cli.Context) error {
	clientID := c.Int64(flagClient)
	reason := c.String(flagReason)
	dir := c.String(flagDir)

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	job, states, err :=
		client.scanController().Watch(c.Context, clientID, reason)
	if err != nil {
		return err
	}
	defer states.Unsubscribe()
	for state := range states.C() {
		switch state {
		case scans.StateSubmitting:
			fmt.Printf("Requesting a scan of client %d...\n", clientID)
		case scans.StatePolling:
			fmt.Println("Waiting for the scan to complete...")
		case scans.StateDownloading:
			fmt.Printf("Scan %d is complete. Downloading its report...\n", job.ScanID())
		}
	}

	<-job.Done()
	report, err := job.Result()
	if err != nil {
		if job.State() == scans.StateTimedOut {
			if scanID := job.ScanID(); scanID != 0 {
				return errors.Wrapf(
					err,
					"scan %d did not complete in time; use `praxis scan report "+
						"--id %d` to download its report later",
					scanID,
					scanID,
				)
			}
			return errors.Wrap(
				err,
				"the scan did not complete in time; use `praxis scan list` to find "+
					"it later",
			)
		}
		return err
	}

	path, err := saveReport(dir, report)
	if err != nil {
		return err
	}
	fmt.Printf("\nThe report for scan %d was saved to %s.\n", report.ScanID, path)
	return nil
}

func scanReport(c *cli.Context) error {
	id := c.Int64(flagID)
	dir := c.String(flagDir)

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	report, err := client.Scans().DownloadReport(c.Context, id)
	if err != nil {
		return err
	}

	path, err := saveReport(dir, report)
	if err != nil {
		return err
	}
	fmt.Printf("The report for scan %d was saved to %s.\n", id, path)
	return nil
}

// saveReport writes the report into dir under the name the API server
// suggested and returns the path written to.
func saveReport(dir string, report core.Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "error creating directory %s", dir)
	}
	path := filepath.Join(dir, filepath.Base(report.Filename))
	if err := os.WriteFile(path, report.Content, 0644); err != nil {
		return "", errors.Wrapf(err, "error writing report to %s", path)
	}
	return path, nil
}

func scanStatus(c *cli.Context) error {
	clientID := c.Int64(flagClient)
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	status, err := client.Scans().LatestStatus(c.Context, clientID)
	if err != nil {
		return err
	}

	if err := printOutput(output, status, func(table *uitable.Table) {
		table.AddRow("CLIENT", "SCAN", "STATUS")
		table.AddRow(clientID, formatID(status.ScanID), status.Phase)
	}); err != nil {
		return errors.Wrap(err, "error formatting output from scan status operation")
	}
	return nil
}

func scanList(c *cli.Context) error {
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	client, err := getClient(c)
	if err != nil {
		return errors.Wrap(err, "error getting praxis client")
	}
	defer client.Close()

	results, err := client.Scans().List(c.Context)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No scans found.")
		return nil
	}

	if err := printOutput(output, results, func(table *uitable.Table) {
		table.AddRow("ID", "DATE", "CLIENT", "REASON", "OVERALL")
		for _, scan := range results {
			table.AddRow(
				scan.ID,
				formatTime(&scan.Date),
				scan.ClientFullName,
				scan.Reason,
				formatScore(scan.OverallScore),
			)
		}
	}); err != nil {
		return errors.Wrap(err, "error formatting output from list scans operation")
	}
	return nil
}

func scanGet(c *cli.Context) error {
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

	scan, err := client.Scans().Get(c.Context, id)
	if err != nil {
		return err
	}

	if err := printOutput(output, scan, func(table *uitable.Table) {
		table.AddRow("ID", "DATE", "CLIENT", "AGE", "REASON")
		table.AddRow(
			scan.ID,
			formatTime(&scan.Date),
			scan.ClientFullName,
			scan.ClientAge,
			scan.Reason,
		)
		table.AddRow()
		table.AddRow("BALANCE", "STEPPING", "SQUAT", "POSTURE", "OVERALL")
		table.AddRow(
			formatScore(scan.BalanceScore),
			formatScore(scan.SteppingScore),
			formatScore(scan.SquatScore),
			formatScore(scan.PostureScore),
			formatScore(scan.OverallScore),
		)
	}); err != nil {
		return errors.Wrap(err, "error formatting output from get scan operation")
	}
	return nil
}

func scanDelete(c *cli.Context) error {
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

	if err := client.Scans().Delete(c.Context, id); err != nil {
		return err
	}

	fmt.Printf("Scan %d deleted.\n", id)
	return nil
}

// formatScore renders an assessment score, which is absent until the scan is
// complete.
func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', 1, 64)
}

func formatID(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}

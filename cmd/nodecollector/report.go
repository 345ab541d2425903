package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/nodecollector/internal/config"
	"github.com/sshcollectorpro/nodecollector/internal/database"
	"github.com/sshcollectorpro/nodecollector/internal/model"
	"github.com/sshcollectorpro/nodecollector/pkg/logger"
)

func newReportCommand(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the most recent recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := cfg()
			if !c.Report.Enabled {
				return errors.New("run reports are disabled; set report.enabled to true")
			}

			store, err := database.OpenReportStore(c.Report.SQLitePath, logger.GetLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.LatestRun(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %d finished %s: %d requested, %d saved\n",
				run.ID, run.FinishedAt.Format("2006-01-02 15:04:05"), run.Requested, run.Saved)
			fmt.Fprintf(out, "Listing %s (%d bytes, %s)\n", run.ListPath, run.ListSize, run.Checksum)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NODE\tSTATUS\tDETAIL")
			for _, n := range run.Nodes {
				detail := n.Error
				if n.Status == string(model.NodeStatusSaved) {
					detail = n.Address + "|" + n.DeviceID
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", n.NodeIndex, n.Status, detail)
			}
			return tw.Flush()
		},
	}
}

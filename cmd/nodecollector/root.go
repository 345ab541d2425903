package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sshcollectorpro/nodecollector/internal/config"
	"github.com/sshcollectorpro/nodecollector/internal/database"
	"github.com/sshcollectorpro/nodecollector/internal/model"
	"github.com/sshcollectorpro/nodecollector/internal/service"
	"github.com/sshcollectorpro/nodecollector/pkg/logger"
)

const (
	name             = "nodecollector"
	completedMessage = "Node information retrieval completed."
)

// 构建时通过 ldflags 覆盖
var version = "dev"

type rootOptions struct {
	cfgFile string
	nodes   int
}

// newRootCommand 创建根命令，flag绑定到独立的viper实例，优先级高于环境变量和配置文件
func newRootCommand() *cobra.Command {
	v := viper.New()
	opts := &rootOptions{}
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:   name,
		Short: "Aggregate per-node address and device ids into a listing",
		Long: `nodecollector reads <base_dir>/node-<i>/nodeid.json and
<base_dir>/node-<i>/deviceid.txt for i = 1..N and writes one
"address|device_id" line per complete node to the listing file
(nodesList.txt by default). Nodes with missing, malformed or empty
metadata are reported and skipped.`,
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.LoadWith(v, opts.cfgFile)
			if err != nil {
				return err
			}
			if err := logger.Init(logger.Config{
				Level:      c.Log.Level,
				Format:     c.Log.Format,
				Output:     c.Log.Output,
				FilePath:   c.Log.FilePath,
				MaxSize:    c.Log.MaxSize,
				MaxBackups: c.Log.MaxBackups,
				MaxAge:     c.Log.MaxAge,
				Compress:   c.Log.Compress,
			}, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			cfg = c
			logger.WithFields(logrus.Fields{
				"version":  version,
				"base_dir": c.Source.BaseDir,
				"output":   c.Output.Path,
			}).Debug("starting")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, cfg, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default searches ./nodecollector.yaml, ./configs and ~/.config/nodecollector)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")

	f := cmd.Flags()
	f.IntVarP(&opts.nodes, "nodes", "n", 0, "number of nodes to collect; prompted for when omitted")
	f.String("base-dir", "", "directory holding the node-<i> subdirectories")
	f.StringP("output", "o", "", "listing file to (re)write")

	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("source.base_dir", f.Lookup("base-dir"))
	_ = v.BindPFlag("output.path", f.Lookup("output"))

	cmd.AddCommand(newReportCommand(func() *config.Config { return cfg }))
	return cmd
}

func runCollect(cmd *cobra.Command, cfg *config.Config, opts *rootOptions) error {
	count := opts.nodes
	if !cmd.Flags().Changed("nodes") {
		n, err := promptNodeCount(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		count = n
	}

	collector := service.NewNodeInfoCollector(cfg, logger.GetLogger())
	summary, runErr := collector.Collect(cmd.Context(), count)
	if summary == nil {
		return runErr
	}

	if cfg.Report.Enabled {
		if err := saveReport(cmd, cfg, summary); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	logger.WithFields(logrus.Fields{
		"saved":    summary.Counts[model.NodeStatusSaved],
		"skipped":  summary.Skipped(),
		"checksum": summary.Checksum,
	}).Infof("Wrote %d of %d nodes to %s", summary.Counts[model.NodeStatusSaved], summary.Requested, summary.ListPath)
	logger.Info(completedMessage)
	return nil
}

func saveReport(cmd *cobra.Command, cfg *config.Config, summary *model.Summary) error {
	store, err := database.OpenReportStore(cfg.Report.SQLitePath, logger.GetLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	// 中断的运行同样记录
	report, err := store.SaveRun(context.WithoutCancel(cmd.Context()), summary)
	if err != nil {
		return err
	}
	logger.WithField("run_id", report.ID).Debugf("Run report saved to %s", cfg.Report.SQLitePath)
	return nil
}

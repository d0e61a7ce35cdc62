package cmd

import (
	"fmt"

	"github.com/josephlewis42/civa/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore the shell's event log.",
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the sessions, commands and failures in the event log.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		configuration, err := loadConfig(env)
		if err != nil {
			return err
		}

		fd, err := configuration.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		report := logger.NewReport()
		if err := logger.ReadJSONLinesLog(fd, report.Update, report.Invalid); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(reportCmd)
}

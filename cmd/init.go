package cmd

import (
	"log"

	"github.com/josephlewis42/civa/core/config"
	"github.com/spf13/cobra"
)

// initCmd writes the default configuration.
var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Write the default configuration and alias file.",
	Long: `Writes the default config.yaml and alias file to DIR, or to the
configuration directory if DIR isn't given. Existing files are kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		var dir string
		if len(args) == 1 {
			dir = args[0]
		} else {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			if dir, err = configDir(env); err != nil {
				return err
			}
		}

		_, err := config.Initialize(dir, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

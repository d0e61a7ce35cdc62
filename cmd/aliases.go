package cmd

import (
	"github.com/josephlewis42/civa/core/alias"
	"github.com/spf13/cobra"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Print the alias file in canonical form.",
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

		table, err := alias.Load(configuration.Fs(), configuration.AliasPath())
		if err != nil {
			return err
		}
		return table.Format(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(aliasesCmd)
}

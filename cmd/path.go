package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/josephlewis42/civa/core/pathindex"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var showShadowed bool

var pathCmd = &cobra.Command{
	Use:   "path [--all] [NAME...]",
	Short: "Show the commands found on PATH.",
	Long: `Lists every command found on PATH and where it lives. Given names, only
those are shown. With --all, every match for a name is shown in PATH order,
including the ones shadowed by an earlier directory.`,
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

		fs := afero.NewOsFs()
		idx := pathindex.Build(fs, env.Path, pathindex.WithMaxHops(configuration.MaxSymlinkHops))

		names := args
		if len(names) == 0 {
			names = idx.Names()
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		missing := 0
		for _, name := range names {
			matches := lookupAll(fs, idx, name, configuration.MaxSymlinkHops)
			if len(matches) == 0 {
				fmt.Fprintf(tw, "%s\t%s\n", name, "not found")
				missing++
				continue
			}
			for _, match := range matches {
				fmt.Fprintf(tw, "%s\t%s\n", name, match)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if missing > 0 {
			return fmt.Errorf("%d command(s) not found", missing)
		}
		return nil
	},
}

// lookupAll returns the winning path for name, followed by shadowed ones
// if --all was given.
func lookupAll(fs afero.Fs, idx *pathindex.Index, name string, maxHops int) []string {
	if !showShadowed {
		if path, ok := idx.Get(name); ok {
			return []string{path}
		}
		return nil
	}

	var out []string
	for _, dir := range idx.Dirs() {
		single := pathindex.Build(fs, dir, pathindex.WithMaxHops(maxHops))
		if path, ok := single.Get(name); ok {
			out = append(out, path)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(pathCmd)
	pathCmd.Flags().BoolVar(&showShadowed, "all", false, "show matches shadowed by earlier PATH entries")
}

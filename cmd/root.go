package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/josephlewis42/civa/core"
	"github.com/josephlewis42/civa/core/alias"
	"github.com/josephlewis42/civa/core/config"
	"github.com/josephlewis42/civa/core/logger"
	"github.com/josephlewis42/civa/core/pathindex"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultWidth = 80

var (
	cfgDir   string
	logLevel string
	command  string

	// exitCode is returned to the OS once the root command finishes.
	exitCode int
)

func loadEnvironment() (*config.Environment, error) {
	env, err := config.LoadEnvironment()
	if errors.Is(err, pathindex.ErrNoPath) {
		log.Error("PATH isn't set, refusing to guess where commands live")
	}
	return env, err
}

func configDir(env *config.Environment) (string, error) {
	if cfgDir != "" {
		return cfgDir, nil
	}
	return env.DefaultDir()
}

// loadConfig loads the configuration, falling back to the built in one if
// init hasn't been run.
func loadConfig(env *config.Environment) (*config.Configuration, error) {
	dir, err := configDir(env)
	if err != nil {
		return nil, err
	}

	configuration, err := config.Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("Couldn't load config, using defaults: did you run init?", "dir", dir)
		return config.Default(afero.NewOsFs(), dir), nil
	}

	return configuration, err
}

// openLogger opens the JSON event log at the configured level, or the one
// given with --log-level or $CIVA_LOG_LEVEL.
func openLogger(cmd *cobra.Command, env *config.Environment, configuration *config.Configuration) (*log.Logger, io.Closer, error) {
	level := configuration.LogLevel
	if env.LogLevel != "" {
		level = env.LogLevel
	}
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}

	var w io.Writer = io.Discard
	var closer io.Closer = io.NopCloser(nil)
	if fd, err := configuration.OpenAppLog(); err != nil {
		log.Warn("Couldn't open the event log, events won't be recorded", "err", err)
	} else {
		w, closer = fd, fd
	}

	l, err := logger.New(w, level)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return l, closer, nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "civa",
	Short: "An interactive command shell.",
	Long: `civa reads command lines, splits them on ; && || and |, and runs each
group one after another with pipes between the stages of a pipeline.

Without -c it reads commands from the terminal, or from stdin when stdin
isn't a terminal.`,
	Args: cobra.NoArgs,
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

		eventLog, logCloser, err := openLogger(cmd, env, configuration)
		if err != nil {
			return err
		}
		eventLog, _ = logger.NewSession(eventLog)

		aliases, err := alias.Load(configuration.Fs(), configuration.AliasPath())
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), core.FormatError(err, !color.NoColor))
			aliases = alias.NewTable()
		}

		paths, err := pathindex.FromEnv(
			afero.NewOsFs(),
			pathindex.WithMaxHops(configuration.MaxSymlinkHops),
			pathindex.WithLogger(eventLog),
		)
		if err != nil {
			logCloser.Close()
			return err
		}

		sh := core.NewShell(core.Options{
			Config:  configuration,
			Aliases: aliases,
			Paths:   paths,
			Logger:  eventLog,
			Stdio: core.IO{
				Stdin:  os.Stdin,
				Stdout: os.Stdout,
				Stderr: os.Stderr,
			},
			Home:  env.Home,
			User:  env.User,
			Color: !color.NoColor,
		})
		sh.AddCloser(logCloser)
		defer sh.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		switch {
		case cmd.Flags().Changed("command"):
			sh.RunLine(ctx, command)

		case term.IsTerminal(int(os.Stdin.Fd())):
			if err := sh.EnableReadline(terminalWidth); err != nil {
				return err
			}

			// Closing the line editor unblocks the read.
			go func() {
				<-ctx.Done()
				sh.Close()
			}()

			if err := sh.RunInteractive(ctx); err != nil {
				return err
			}

		default:
			if err := sh.RunScript(ctx, os.Stdin); err != nil {
				return err
			}
		}

		exitCode = sh.ExitStatus()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "configuration directory (default $CIVA_CONFIG_DIR or the user config dir)")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run LINE and exit with its status")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "event log level (debug|info|warn|error)")
}

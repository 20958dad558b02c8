// Package cli defines the livelog command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/five82/livelog/internal/app"
)

// Execute runs the livelog command with os.Args.
func Execute(ctx context.Context, version string) error {
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	opts := app.Options{}
	cmd := &cobra.Command{
		Use:   "livelog [file]",
		Short: "Follow log files served by a livelog server",
		Long: "Terminal client for a livelog server: pick a log file, follow its tail,\n" +
			"and see lines colored by the server's grouping rules.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.File = args[0]
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/livelog/config.toml)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/livelog/prefs.toml)")
	flags.StringVar(&opts.ServerURL, "server", "", "livelog server URL, including its mount path")
	flags.StringVar(&opts.Token, "token", "", "login token when the server requires one")
	flags.DurationVar(&opts.PollInterval, "poll", 0, "tail poll interval (default 1s)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newFilesCmd(&opts), newTailCmd(&opts), newLogsCmd(&opts))
	return cmd
}

func newFilesCmd(opts *app.Options) *cobra.Command {
	list := app.ListOptions{}
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List the server's log files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ListFiles(cmd.Context(), *opts, list, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&list.Filter, "filter", "", "regex for file names (default: the server's filter)")
	cmd.Flags().BoolVar(&list.All, "all", false, "list every file, ignoring filters")
	return cmd
}

func newTailCmd(opts *app.Options) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "tail <file>",
		Short: "Print new lines of a file as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			follow := *opts
			follow.File = args[0]
			return app.Follow(cmd.Context(), follow, filter, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only print lines matching this regex")
	return cmd
}

func newLogsCmd(opts *app.Options) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the end of livelog's own log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ShowLog(*opts, lines, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show (0 for all)")
	return cmd
}

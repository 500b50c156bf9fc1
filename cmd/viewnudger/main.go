package main

import (
	"os"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "viewnudger",
		Short:         "Nudge a camera or object by a screen-space pixel offset",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file (built-in scene when empty)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level (debug, info, warn, error, silent)")

	rootCmd.AddCommand(nudgeCmd(&flags))
	rootCmd.AddCommand(projectCmd(&flags))
	rootCmd.AddCommand(serveCmd(&flags))
	rootCmd.AddCommand(remoteCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func nudgeCmd(flags *globalFlags) *cobra.Command {
	var opts nudgeOptions

	cmd := &cobra.Command{
		Use:   "nudge <direction>...",
		Short: "Apply one or more compass nudges and print the resulting scene",
		Long: "Directions are up, down, left, right, up-left, up-right, down-left and down-right.\n" +
			"Each direction is applied in order as its own undoable step.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNudge(cmd.OutOrStdout(), flags, opts, args)
		},
	}

	cmd.Flags().Float64VarP(&opts.amount, "amount", "a", 1, "pixels per step")
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "entity to nudge (first selected when empty)")
	cmd.Flags().BoolVar(&opts.moveObject, "move-object", false, "move the target instead of the camera")
	cmd.Flags().BoolVar(&opts.rotateView, "rotate-view", false, "re-aim the camera after moving it")
	cmd.Flags().StringVar(&opts.view, "view", "", "viewport panel name (active panel when empty)")
	cmd.Flags().BoolVar(&opts.undo, "undo", false, "undo the last nudge before printing")
	return cmd
}

func projectCmd(flags *globalFlags) *cobra.Command {
	var view, aim string
	var workers int

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print the screen position of every entity in a viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProject(cmd.Context(), cmd.OutOrStdout(), flags, view, aim, workers)
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "viewport panel name (active panel when empty)")
	cmd.Flags().StringVar(&aim, "aim", "", "re-aim the viewport camera at this entity first")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel projections (GOMAXPROCS when 0)")
	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the websocket nudge panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd.OutOrStdout(), flags, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "l", "", "listen address (overrides server.addr)")
	return cmd
}

func remoteCmd(flags *globalFlags) *cobra.Command {
	var opts nudgeOptions
	var url string

	cmd := &cobra.Command{
		Use:   "remote <direction>...",
		Short: "Send nudges to a running viewnudger server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(cmd.Context(), cmd.OutOrStdout(), flags, url, opts, args)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "ws://127.0.0.1:8765/ws", "server websocket URL")
	cmd.Flags().Float64VarP(&opts.amount, "amount", "a", 1, "pixels per step")
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "entity to nudge (server selection when empty)")
	cmd.Flags().BoolVar(&opts.moveObject, "move-object", false, "move the target instead of the camera")
	cmd.Flags().BoolVar(&opts.rotateView, "rotate-view", false, "re-aim the camera after moving it")
	cmd.Flags().StringVar(&opts.view, "view", "", "viewport panel name (active panel when empty)")
	cmd.Flags().BoolVar(&opts.undo, "undo", false, "undo the last nudge afterwards")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"

	"github.com/gekko3d/cellular"
	"github.com/gekko3d/cellular/automata/rule"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// GLFW must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cellular",
		Short:         "3D cellular automata rendered as instanced cubes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCommand(), newPresetsCommand())
	return root
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the visualiser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cellular.LoadConfig(viper.New(), cmd.Flags())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := cellular.BuildApp(ctx, cfg)
			if err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
	cellular.RegisterFlags(cmd.Flags())
	return cmd
}

func newPresetsCommand() *cobra.Command {
	var presetsFile string
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []rule.Preset
			if presetsFile != "" {
				var err error
				if extra, err = rule.LoadPresetFile(presetsFile); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tRULE\tBOUNDS\tCOLOUR")
			for _, name := range rule.Names(extra) {
				r, err := rule.Lookup(name, extra)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, r.Notation(), r.Bounds, r.Colour.Kind)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&presetsFile, "presets", "", "yaml file with extra presets")
	return cmd
}

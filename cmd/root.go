package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/config"
	logx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/logger"
)

// interactiveAnnotation marks commands that own the terminal; they log to a
// file instead of stdout.
const interactiveAnnotation = "interactive"

type rootOptions struct {
	envFile string
	debug   bool
	pretty  bool
	logFile string

	logCloser io.Closer
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Local desktop assistant driven by a language model",
		Long: "assistant turns a local language model's replies into desktop actions: " +
			"launching applications, closing windows, opening folders and reporting system load.",
		SilenceUsage:       true,
		PersistentPreRunE:  opts.setup,
		PersistentPostRunE: opts.teardown,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env", "", "path to an env file (default ./.env when present)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.pretty, "pretty", false, "human readable console logs")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs to this file")

	rootCmd.AddCommand(
		newChatCmd(),
		newAskCmd(),
		newAppsCmd(),
		newServeCmd(),
	)

	return rootCmd
}

func (o *rootOptions) setup(cmd *cobra.Command, _ []string) error {
	configx.SetEnvFile(o.envFile)

	logCfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("debug") {
		logCfg.Debug = o.debug
	}
	if cmd.Flags().Changed("pretty") {
		logCfg.PrettyFormat = o.pretty
	}
	if o.logFile != "" {
		logCfg.File = o.logFile
	}

	if _, ok := cmd.Annotations[interactiveAnnotation]; ok {
		logCfg.Console = false
		if logCfg.File == "" {
			path, err := logx.DefaultFile(time.Now())
			if err != nil {
				return err
			}
			logCfg.File = path
		}
	}

	closer, err := logx.Init(*logCfg)
	if err != nil {
		return err
	}
	o.logCloser = closer
	return nil
}

func (o *rootOptions) teardown(*cobra.Command, []string) error {
	if o.logCloser == nil {
		return nil
	}
	return o.logCloser.Close()
}

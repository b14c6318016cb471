// Command scopeagent runs the research scoping assistant as a console chat or as an
// HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/smallnest/scopeagent/config"
	"github.com/smallnest/scopeagent/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *log.GologLogger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "scopeagent",
		Short:         "Clarify a research request and turn it into a research brief",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			level, err := log.ParseLogLevel(cfg.LogLevel)
			if err != nil {
				return err
			}

			opts.cfg = cfg
			opts.logger = log.NewGologLoggerWithLevel("[scope] ", level)
			log.SetDefaultLogger(opts.logger)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, none")

	root.AddCommand(newChatCmd(opts), newServeCmd(opts))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

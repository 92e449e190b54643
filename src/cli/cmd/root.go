package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	_ "github.com/kodecks/kodeship/src/build/toolchains"
	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/logging"
)

var (
	cfgFile string
	verbose bool
	dryRun  bool
	cfg     *config.Config
	log     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kodeship",
	Short: "Build, package and ship kodecks",
	Long: `kodeship runs the kodecks delivery pipeline: per-OS release builds,
archives attached to a draft release, the web client deploy, and the
build/test/lint gate. CI calls one subcommand per job.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.New(os.Stderr, verbose)

		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		warnings, err := config.Validate(cfg)
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .kodeship.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print commands instead of running them; release to the local store")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running
// step and skip the rest of the job.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

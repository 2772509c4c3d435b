package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seedtray/logtail"
	"github.com/seedtray/logtail/format"
	"github.com/seedtray/logtail/internal/config"
	"github.com/seedtray/logtail/internal/diag"
	"github.com/seedtray/logtail/sink"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "logtail",
	Short: "Follow a log file and forward matching records to syslog",
	Long: `Follow a single log file, carve records out of what is appended to it with a
regular expression, and forward the records that pass the format's filter.

The file may be rotated (truncated, deleted or renamed) while it is followed;
the replacement is read from its start. A missing file is waited for.

Example usage:
  logtail --path /var/log/uwsgi/app/site.log
  logtail --config /etc/logtail.yaml
  LOGTAIL_SINK_KIND=stdout logtail --path app.log`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger, closer := diag.New(cfg.Log, "logtail")
		defer closer.Close()

		f, err := format.New(cfg.Format)
		if err != nil {
			return err
		}
		out, err := sink.New(cfg.Sink, os.Stdout, os.Stderr)
		if err != nil {
			return err
		}
		defer out.Close()

		r, err := logtail.NewRunner(cfg.Tail, f, out, logtail.WithLogger(logger))
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		r.Start()
		select {
		case <-ctx.Done():
			logger.Print("shutting down")
		case <-waitDone(r):
		}
		if err := r.Stop(); err != nil {
			return fmt.Errorf("runner failed: %w", err)
		}
		p := r.Pipeline()
		logger.Printf("emitted %d records, filtered %d", p.Emitted, p.Filtered)
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Run the existing content of a file through the format once",
	Long: `Read FILE from its start to its current end, extract records with the
configured format and print the ones that pass the filter. Useful for checking
a pattern against a sample log before following it.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Set("path", args[0]); err != nil {
			return err
		}
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger, closer := diag.New(cfg.Log, "extract")
		defer closer.Close()

		f, err := format.New(cfg.Format)
		if err != nil {
			return err
		}
		p := logtail.NewPipeline(f, sink.NewWriter(cmd.OutOrStdout()), cfg.Tail.MaxPending, logger)
		end, err := logtail.Replay(nil, cfg.Tail.Path, 0, cfg.Tail.BlockSize, p)
		if err != nil {
			return err
		}
		logger.Printf("read %d bytes: emitted %d records, filtered %d, %d bytes pending",
			end, p.Emitted, p.Filtered, len(p.Pending()))
		return nil
	},
}

func waitDone(r *logtail.Runner) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	return done
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(extractCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

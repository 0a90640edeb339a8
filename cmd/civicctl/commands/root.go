package commands

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/civic-eye/internal/config"
	"github.com/mr1hm/civic-eye/internal/logging"
	"github.com/mr1hm/civic-eye/internal/photo"
	"github.com/mr1hm/civic-eye/internal/verification"
)

var (
	timeout  time.Duration
	logLevel string

	policy   verification.Policy
	fetcher  photo.Fetcher
	verifier *verification.Verifier
)

func Execute() error {
	return newRootCmd(os.Stdout).Execute()
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "civicctl",
		Short:         "Inspect and verify civic issue photos",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(os.Stderr, logLevel, "text")

			policy = cfg.Policy()
			fetcher = &photo.FileFetcher{
				HTTP:     photo.NewHTTPFetcher(cfg.Photos.FetchTimeout, cfg.Photos.MaxBytes),
				MaxBytes: cfg.Photos.MaxBytes,
			}
			verifier = verification.New(fetcher, verification.NewHashAnalyzer(), policy,
				verification.WithTimeout(timeout),
				verification.WithLogger(logger),
			)
			slog.SetDefault(logger)
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().DurationVar(&timeout, "timeout", verification.DefaultTimeout, "verification timeout")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for stderr diagnostics")

	root.AddCommand(exifCmd(), distanceCmd(), verifyCmd(), previewCmd())
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/shortlink-backend/internal/tools/loadgen"
)

func NewLoadgenCmd() *cobra.Command {
	cfg := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate alias resolution traffic against a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := loadgen.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"total":        res.Total,
				"errors":       res.Errors,
				"status_class": res.StatusClass,
				"elapsed":      res.Elapsed.String(),
				"mean_latency": res.MeanLatency().String(),
				"max_latency":  res.MaxLatency.String(),
			})
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", "http://localhost:3001", "API base URL")
	cmd.Flags().StringVar(&cfg.Profile, "profile", "mixed", "traffic profile: resolve, health or mixed")
	cmd.Flags().StringVar(&cfg.Alias, "alias", "", "alias to resolve")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 10*time.Second, "how long to generate traffic")
	cmd.Flags().IntVar(&cfg.RPS, "rps", 20, "requests per second")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 4, "concurrent workers")
	return cmd
}

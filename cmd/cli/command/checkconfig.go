package command

import (
	"fmt"

	"yamdb/internal/config"

	"github.com/spf13/cobra"
)

var checkConfigCmd = &cobra.Command{
	Use:   "checkconfig",
	Short: "Validate the configuration and print the effective values",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "environment:      %s\n", cfg.GoEnv)
		fmt.Fprintf(out, "http port:        %d\n", cfg.HTTPPort)
		fmt.Fprintf(out, "token ttl:        %s\n", cfg.AccessTokenTTL)
		fmt.Fprintf(out, "single-use codes: %t\n", cfg.ConfirmationCodeSingleUse)
		fmt.Fprintf(out, "notifier:         %s\n", cfg.NotifierDriver)
		if cfg.NotifierDriver != config.NotifierLog {
			fmt.Fprintf(out, "smtp relay:       %s\n", cfg.SMTPAddr())
		}
		fmt.Fprintf(out, "auth rate limit:  %.2f/s burst %d\n", cfg.AuthRateLimit, cfg.AuthRateBurst)
		fmt.Fprintf(out, "metrics:          %t\n", cfg.PrometheusEnabled)
		fmt.Fprintf(out, "log:              %s/%s\n", cfg.LogLevel, cfg.LogFormat)
		fmt.Fprintln(out, "Configuration is valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cryptoproxy/internal/cryptoapi"
	"cryptoproxy/internal/httpx"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
		api     *cryptoapi.Client
	)

	root := &cobra.Command{
		Use:           "fetch",
		Short:         "Query a running proxy and print market data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			api = cryptoapi.New(apiURL, cryptoapi.WithHTTPClient(httpx.New(timeout)))
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api", envOr("API_BASE_URL", cryptoapi.DefaultBaseURL), "gateway base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 40*time.Second, "request timeout")

	root.AddCommand(&cobra.Command{
		Use:   "top",
		Short: "List the top 10 coins by market cap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coins, err := api.TopCryptos(cmd.Context())
			if err != nil {
				return err
			}
			renderTop(cmd.OutOrStdout(), coins)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show the details of one coin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coin, err := api.CryptoByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderDetail(cmd.OutOrStdout(), coin)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search coins by name or symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, query, err := api.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderSearch(cmd.OutOrStdout(), query, results)
			return nil
		},
	})

	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

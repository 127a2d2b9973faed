package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lead-radar/radar-cli/internal/provider"
)

// registry holds the pluggable country providers. "BE" is handled by the
// built-in CSV pipeline, not a provider; "XX" is the integration skeleton.
var registry = newProviderRegistry()

func newProviderRegistry() *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register(provider.NewTemplateProvider())
	return reg
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered country providers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		countries := registry.List()
		if len(countries) == 0 {
			fmt.Fprintln(os.Stderr, "No providers registered.")
			return nil
		}
		for _, country := range countries {
			fmt.Fprintln(os.Stdout, country)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

// Package cmd implements the lumi-admin operator CLI. It drives the
// issuance service's HTTP API: registering credentials, initializing the
// config slot, authorizing issuers and submitting issuance requests.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "lumi-admin",
	Short:         "Operator CLI for the LUMI issuance service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Println(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8081", "issuance service base URL")
	rootCmd.PersistentFlags().String("token", "", "bearer token obtained via 'lumi-admin login'")
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.SetEnvPrefix("lumi")
	viper.BindEnv("server")
	viper.BindEnv("token")

	rootCmd.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newInitConfigCmd(),
		newAddIssuerCmd(),
		newIssueCmd(),
		newStatusCmd(),
		newSupplyCmd(),
	)
}

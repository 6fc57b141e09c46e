package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var wallet, secret string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a wallet credential with the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiCall("POST", "/auth/register", map[string]string{
				"wallet_id": wallet, "secret": secret,
			})
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet identity to register")
	cmd.Flags().StringVar(&secret, "secret", "", "API secret for the wallet")
	cmd.MarkFlagRequired("wallet")
	cmd.MarkFlagRequired("secret")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var wallet, secret string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange a wallet secret for a bearer token",
		Long:  "Prints a token; export it as LUMI_TOKEN for the other commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiCall("POST", "/auth/token", map[string]string{
				"wallet_id": wallet, "secret": secret,
			})
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet identity")
	cmd.Flags().StringVar(&secret, "secret", "", "API secret for the wallet")
	cmd.MarkFlagRequired("wallet")
	cmd.MarkFlagRequired("secret")
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	var assetID string
	var dailyCap uint64
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Claim the config slot; the calling wallet becomes admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dailyCap == 0 {
				return fmt.Errorf("daily cap must be positive")
			}
			body, err := apiCall("POST", "/config/init", map[string]interface{}{
				"asset_id": assetID, "daily_cap_per_issuer": dailyCap,
			})
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}
	cmd.Flags().StringVar(&assetID, "asset", "", "governed asset identifier")
	cmd.Flags().Uint64Var(&dailyCap, "daily-cap", 0, "daily cap applied to every issuer")
	cmd.MarkFlagRequired("asset")
	cmd.MarkFlagRequired("daily-cap")
	return cmd
}

func newAddIssuerCmd() *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "add-issuer",
		Short: "Authorize a wallet as an issuer (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiCall("POST", "/issuers", map[string]string{
				"wallet_id": wallet,
			})
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet identity to authorize")
	cmd.MarkFlagRequired("wallet")
	return cmd
}

func newIssueCmd() *cobra.Command {
	var to, reason, evidence string
	var amount uint64
	var legacy bool
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint LUMI to a recipient wallet (issuer only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/issue"
			if legacy {
				path = "/issue/legacy"
			}
			body, err := apiCall("POST", path, map[string]interface{}{
				"amount":       amount,
				"reason_code":  reason,
				"evidence_ref": evidence,
				"to":           to,
			})
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to mint")
	cmd.Flags().StringVar(&to, "to", "", "recipient wallet")
	cmd.Flags().StringVar(&reason, "reason", "", "8-byte reason tag")
	cmd.Flags().StringVar(&evidence, "evidence", "", "evidence reference, e.g. an IPFS CID")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "target the legacy token contract")
	cmd.MarkFlagRequired("amount")
	cmd.MarkFlagRequired("to")
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <wallet>",
		Short: "Show an issuer's quota record (admin or self)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := apiCall("GET", "/issuers/"+args[0], nil)
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}
	return cmd
}

func newSupplyCmd() *cobra.Command {
	var assetID string
	cmd := &cobra.Command{
		Use:   "supply",
		Short: "Show the asset's total minted supply",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/supply"
			if assetID != "" {
				path += "?asset_id=" + assetID
			}
			body, err := apiCall("GET", path, nil)
			if err != nil {
				return err
			}
			printJSON(body)
			return nil
		},
	}
	cmd.Flags().StringVar(&assetID, "asset", "", "asset identifier (defaults to the configured asset)")
	return cmd
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/surefi/surefi-gateway/pkg/client"
)

func createOwnerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owner",
		Short: "Show the contract owner",
		Long: `Show the address that owns the SureFi contract.

EXAMPLES:
  surefi owner
  surefi owner --server https://gateway.example.com --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(getServer())
			resp, err := c.Owner(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get owner: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, resp)
			}
			fmt.Fprintf(out, "Owner: %s\n", resp.Owner)
			return nil
		},
	}
}

func createVerifiedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verified <address>",
		Short: "Check whether an address is verified",
		Long: `Ask the gateway whether an address is verified by the SureFi contract.

The address may be given in any letter case, with or without 0x; the
gateway answers with its checksummed form.

EXAMPLES:
  surefi verified 0x47d4060b25c2bcf5b73c77aa6f6d3b27db46fe2e
  surefi verified 47D4060B25C2BCF5B73C77AA6F6D3B27DB46FE2E --json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(getServer())
			resp, err := c.Verified(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to check verification: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, resp)
			}
			status := "not verified"
			if resp.Verified {
				status = "verified"
			}
			fmt.Fprintf(out, "%s: %s\n", resp.Address, status)
			return nil
		},
	}
}

func createStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the gateway can reach its chain node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL := getServer()
			if err := client.New(serverURL).Ready(cmd.Context()); err != nil {
				return fmt.Errorf("gateway %s not ready: %w", serverURL, err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, map[string]string{"server": serverURL, "status": "ready"})
			}
			fmt.Fprintf(out, "%s: ready\n", serverURL)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/surefi/surefi-gateway/internal/chain"
	"github.com/surefi/surefi-gateway/internal/config"
)

// sampleAddress is queried by check when no address is given.
const sampleAddress = "0x742d35Cc6634C0532925a3b8D2B2B5C7d4D6F8eF"

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [address]",
		Short: "Check connectivity and read the contract once",
		Long: `Connect to the configured node, print the chain it serves, bind the
contract and call owner() and verified(address).

Connection and ABI problems are fatal; failing contract calls are reported
and the command still exits successfully.

EXAMPLES:
  surefi-server check
  RPC_URL=http://localhost:8545 surefi-server check 0x47d4060b25c2bcf5b73c77aa6f6d3b27db46fe2e
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := sampleAddress
			if len(args) == 1 {
				address = args[0]
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runCheck(cmd.Context(), cfg, address, cmd.OutOrStdout())
		},
	}
}

func runCheck(ctx context.Context, cfg *config.Config, address string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintf(out, "Connecting to %s\n", cfg.Chain.RPCURL)
	conn, err := chain.Connect(ctx, chain.Config{
		RPCURL:      cfg.Chain.RPCURL,
		DialTimeout: cfg.Chain.DialTimeoutDuration(),
	})
	if err != nil {
		return fmt.Errorf("connecting to chain: %w", err)
	}
	defer conn.Close()

	status := conn.Status()
	fmt.Fprintf(out, "Connected: block %d, chain id %s\n", status.BlockNumber, status.ChainID)

	binding, iface, err := bindContract(cfg, conn)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Contract address: %s\n", binding.Address().Hex())
	fmt.Fprintf(out, "Interface: %s (%s)\n", iface.Path(), strings.Join(iface.Methods(), ", "))

	if owner, err := binding.Owner(ctx); err != nil {
		fmt.Fprintf(out, "owner() failed: %v\n", err)
	} else {
		fmt.Fprintf(out, "Owner: %s\n", owner.Hex())
	}

	account, err := chain.NormalizeAddress(address)
	if err != nil {
		fmt.Fprintf(out, "verified() skipped: %v\n", err)
		return nil
	}
	if verified, err := binding.Verified(ctx, account); err != nil {
		fmt.Fprintf(out, "verified(%s) failed: %v\n", account.Hex(), err)
	} else {
		fmt.Fprintf(out, "Verified %s: %t\n", account.Hex(), verified)
	}

	return nil
}

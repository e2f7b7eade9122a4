//go:build e2e

package e2e

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/surefi/surefi-gateway/internal/chain"
	"github.com/surefi/surefi-gateway/internal/config"
	"github.com/surefi/surefi-gateway/internal/contract"
	"github.com/surefi/surefi-gateway/internal/server"
	"github.com/surefi/surefi-gateway/pkg/client"
)

const (
	foundryImage = "ghcr.io/foundry-rs/foundry:latest"
	anvilChainID = 1043

	// First well-known anvil development account.
	ownerKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

// TestContext holds shared test infrastructure
type TestContext struct {
	Node       testcontainers.Container
	RPCURL     string
	BuiltDir   string
	Contract   common.Address
	TestServer *httptest.Server
	Conn       *chain.Connector
}

// startAnvilE starts an anvil dev chain and returns its HTTP endpoint
func startAnvilE(ctx context.Context) (testcontainers.Container, string, error) {
	node, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        foundryImage,
			Entrypoint:   []string{"anvil"},
			Cmd:          []string{"--host", "0.0.0.0", "--chain-id", fmt.Sprint(anvilChainID)},
			ExposedPorts: []string{"8545/tcp"},
			WaitingFor:   wait.ForListeningPort("8545/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to start anvil container: %w", err)
	}

	endpoint, err := node.PortEndpoint(ctx, "8545/tcp", "http")
	if err != nil {
		_ = node.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get anvil endpoint: %w", err)
	}
	return node, endpoint, nil
}

// buildContractE runs forge build in a Foundry container and returns the
// artifact directory
func buildContractE(projectDir string) (string, error) {
	// World-writable so the container user can write regardless of uid
	builtDir := filepath.Join(os.TempDir(), fmt.Sprintf("surefi-out-%s", uuid.New().String()))
	if err := os.MkdirAll(builtDir, 0777); err != nil {
		return "", fmt.Errorf("failed to create build directory: %w", err)
	}

	absProjectDir, err := filepath.Abs(projectDir)
	if err != nil {
		os.RemoveAll(builtDir)
		return "", fmt.Errorf("failed to get absolute project path: %w", err)
	}

	// #nosec G204 -- controlled command
	cmd := exec.Command("docker", "run", "--rm",
		"-v", absProjectDir+":/project:ro",
		"-v", builtDir+":/output",
		"-w", "/project",
		"--entrypoint", "/bin/sh",
		foundryImage,
		"-c", "forge build --out /output --cache-path /tmp/forge-cache")

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.RemoveAll(builtDir)
		return "", fmt.Errorf("failed to build contract: %w\nOutput: %s", err, string(output))
	}
	return builtDir, nil
}

// readBytecode returns the creation bytecode from a forge artifact
func readBytecode(builtDir string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(builtDir, "SureFi.sol", "SureFi.json"))
	if err != nil {
		return nil, err
	}
	var artifact struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing artifact: %w", err)
	}
	return hexutil.Decode(artifact.Bytecode.Object)
}

func ownerKey() *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(ownerKeyHex)
	if err != nil {
		panic(err)
	}
	return key
}

// ownerAddress is the deployer and therefore the contract owner
func ownerAddress() common.Address {
	return crypto.PubkeyToAddress(ownerKey().PublicKey)
}

// sendTx signs and submits a legacy transaction from the owner account and
// waits for its receipt
func sendTx(ctx context.Context, ec *ethclient.Client, to *common.Address, data []byte) (*types.Receipt, error) {
	key := ownerKey()
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := ec.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("reading nonce: %w", err)
	}
	gasPrice, err := ec.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      3_000_000,
		To:       to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(anvilChainID)), key)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	if err := ec.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("sending: %w", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		receipt, err := ec.TransactionReceipt(ctx, signed.Hash())
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return nil, fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil, fmt.Errorf("transaction %s not mined", signed.Hash().Hex())
}

// deployContractE deploys the built contract and returns its address
func deployContractE(ctx context.Context, rpcURL, builtDir string) (common.Address, error) {
	code, err := readBytecode(builtDir)
	if err != nil {
		return common.Address{}, err
	}

	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return common.Address{}, err
	}
	defer ec.Close()

	receipt, err := sendTx(ctx, ec, nil, code)
	if err != nil {
		return common.Address{}, fmt.Errorf("deploying: %w", err)
	}
	return receipt.ContractAddress, nil
}

// setVerified flags user on the deployed contract
func setVerified(t *testing.T, user common.Address, status bool) {
	t.Helper()
	ctx := context.Background()

	iface, err := contract.LoadInterface("../../contract_abi.json")
	require.NoError(t, err)
	parsed := iface.ABI()
	data, err := parsed.Pack("setVerified", user, status)
	require.NoError(t, err)

	ec, err := ethclient.DialContext(ctx, testCtx.RPCURL)
	require.NoError(t, err)
	defer ec.Close()

	_, err = sendTx(ctx, ec, &testCtx.Contract, data)
	require.NoError(t, err)
}

// startServerE starts the gateway in-process against rpcURL
func startServerE(ctx context.Context, rpcURL, contractAddress string) (*httptest.Server, *chain.Connector, error) {
	cfg := config.Default()
	cfg.Chain.RPCURL = rpcURL
	cfg.Contract.Address = contractAddress
	cfg.Contract.ABIPath = "../../contract_abi.json"
	cfg.Logging = config.LoggingConfig{Level: "debug", Format: "text"}
	cfg.RateLimit.Enabled = false

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	conn, err := chain.Connect(ctx, chain.Config{RPCURL: rpcURL, DialTimeout: cfg.Chain.DialTimeoutDuration()})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	iface, err := contract.LoadInterface(contract.ResolvePath(cfg.Contract.ABIPath))
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to load interface: %w", err)
	}

	binding, err := contract.Bind(cfg.Contract.Address, iface, conn.Client())
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to bind contract: %w", err)
	}

	srv := server.New(cfg, binding, conn, logger)
	return httptest.NewServer(srv.Handler()), conn, nil
}

// newClient creates a new API client for the test server
func newClient() *client.Client {
	return client.New(testCtx.TestServer.URL)
}

//go:build e2e

package e2e

import (
	"context"
	"log"
	"os"
	"testing"
)

var testCtx *TestContext

func TestMain(m *testing.M) {
	ctx := context.Background()
	testCtx = &TestContext{}

	// 1. Start a dev chain
	log.Println("Starting anvil container...")
	var err error
	testCtx.Node, testCtx.RPCURL, err = startAnvilE(ctx)
	if err != nil {
		log.Fatalf("Failed to start anvil: %v", err)
	}
	defer func() {
		if err := testCtx.Node.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate anvil container: %v", err)
		}
	}()
	log.Println("Anvil listening at:", testCtx.RPCURL)

	// 2. Build the contract
	log.Println("Building contract...")
	projectDir := "testdata/surefi-contract"
	testCtx.BuiltDir, err = buildContractE(projectDir)
	if err != nil {
		log.Fatalf("Failed to build contract: %v", err)
	}
	defer os.RemoveAll(testCtx.BuiltDir)

	// 3. Deploy it from the anvil owner account
	testCtx.Contract, err = deployContractE(ctx, testCtx.RPCURL, testCtx.BuiltDir)
	if err != nil {
		log.Fatalf("Failed to deploy contract: %v", err)
	}
	log.Println("Contract deployed at:", testCtx.Contract.Hex())

	// 4. Start the gateway in-process
	testCtx.TestServer, testCtx.Conn, err = startServerE(ctx, testCtx.RPCURL, testCtx.Contract.Hex())
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer testCtx.Conn.Close()
	defer testCtx.TestServer.Close()
	log.Println("Test server started at:", testCtx.TestServer.URL)

	exitCode := m.Run()

	log.Println("E2E tests completed with exit code:", exitCode)
	os.Exit(exitCode)
}

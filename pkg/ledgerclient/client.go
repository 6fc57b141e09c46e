package ledgerclient

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"

	"github.com/lumifoundation/lumi-backend/pkg/issuance"
)

// Client wraps the Fabric gateway connection to the LUMI token contracts.
// Both the current contract and the legacy contract live on the same
// channel; they share the mint interface and differ only in the token
// program backing them.
type Client struct {
	gw       *gateway.Gateway
	network  *gateway.Network
	contract *gateway.Contract
	legacy   *gateway.Contract
}

func NewClient(configPath, channelName, contractName, legacyContractName, mspID, certPath, keyPath, walletDir string) (*Client, error) {
	wallet, err := gateway.NewFileSystemWallet(walletDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %v", err)
	}

	if !wallet.Exists("appUser") {
		err = populateWallet(wallet, mspID, certPath, keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to populate wallet: %v", err)
		}
	}

	gw, err := gateway.Connect(
		gateway.WithConfig(config.FromFile(filepath.Clean(configPath))),
		gateway.WithIdentity(wallet, "appUser"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %v", err)
	}

	network, err := gw.GetNetwork(channelName)
	if err != nil {
		return nil, fmt.Errorf("failed to get network: %v", err)
	}

	return &Client{
		gw:       gw,
		network:  network,
		contract: network.GetContract(contractName),
		legacy:   network.GetContract(legacyContractName),
	}, nil
}

// MintLedger adapts one contract to the core's mint capability.
type MintLedger struct {
	contract *gateway.Contract
}

func (m *MintLedger) Mint(assetID string, amount uint64, recipient string, authority issuance.Credential) error {
	_, err := m.contract.SubmitTransaction("Mint",
		assetID, strconv.FormatUint(amount, 10), recipient, string(authority))
	return err
}

// Standard returns the mint capability backed by the current token contract.
func (c *Client) Standard() *MintLedger {
	return &MintLedger{contract: c.contract}
}

// Legacy returns the mint capability backed by the legacy token contract.
func (c *Client) Legacy() *MintLedger {
	return &MintLedger{contract: c.legacy}
}

// TotalSupply reads the asset's minted supply from the current contract.
func (c *Client) TotalSupply(assetID string) (uint64, error) {
	result, err := c.contract.EvaluateTransaction("GetTotalSupply", assetID)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(result), 10, 64)
}

// RegisterIssuanceListener subscribes to the contract's LumiIssued events so
// the service can log ledger-side confirmations.
func (c *Client) RegisterIssuanceListener() (fab.Registration, <-chan *fab.CCEvent, error) {
	return c.contract.RegisterEvent("LumiIssued")
}

// UnregisterListener releases an event subscription.
func (c *Client) UnregisterListener(reg fab.Registration) {
	c.contract.Unregister(reg)
}

func (c *Client) Close() {
	c.gw.Close()
}

func populateWallet(wallet *gateway.Wallet, mspID, certPath, keyPath string) error {
	cert, err := os.ReadFile(filepath.Clean(certPath))
	if err != nil {
		return err
	}

	key, err := os.ReadFile(filepath.Clean(keyPath))
	if err != nil {
		return err
	}

	identity := gateway.NewX509Identity(mspID, string(cert), string(key))

	return wallet.Put("appUser", identity)
}

package chaincode

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// SmartContract maintains LUMI supply and balances. It is the token side of
// the issuance system: the backend decides who may mint and how much per
// day; this contract verifies the presented mint authority and applies the
// supply change.
type SmartContract struct {
	contractapi.Contract
}

// InitLedger initializes the ledger
func (s *SmartContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	return nil
}

// RegisterAsset records a mintable asset and the authority handle allowed to
// mint it. Only the foundation org can register assets.
func (s *SmartContract) RegisterAsset(ctx contractapi.TransactionContextInterface, assetID string, mintAuthority string) error {
	mspID, err := ctx.GetClientIdentity().GetMSPID()
	if err != nil {
		return fmt.Errorf("failed to get MSP ID: %v", err)
	}
	if mspID != "LumiFoundationMSP" {
		return fmt.Errorf("unauthorized: only the foundation can register assets")
	}

	existing, err := ctx.GetStub().GetState(assetKey(assetID))
	if err != nil {
		return fmt.Errorf("failed to read asset: %v", err)
	}
	if existing != nil {
		return fmt.Errorf("asset %s already registered", assetID)
	}

	asset := Asset{
		ID:            assetID,
		MintAuthority: mintAuthority,
		TotalSupply:   0,
	}
	assetBytes, _ := json.Marshal(asset)
	return ctx.GetStub().PutState(assetKey(assetID), assetBytes)
}

// CreateWallet provisions a receiving account. Recipients must exist before
// a mint can credit them; provisioning is the client's responsibility.
func (s *SmartContract) CreateWallet(ctx contractapi.TransactionContextInterface, walletID string, ownerID string) error {
	existing, err := ctx.GetStub().GetState(walletID)
	if err != nil {
		return fmt.Errorf("failed to read wallet: %v", err)
	}
	if existing != nil {
		return fmt.Errorf("wallet %s already exists", walletID)
	}

	wallet := Wallet{
		ID:      walletID,
		OwnerID: ownerID,
		Status:  StatusActive,
		Balance: 0,
	}
	walletBytes, _ := json.Marshal(wallet)
	return ctx.GetStub().PutState(walletID, walletBytes)
}

// Mint credits newly created LUMI to a wallet. The caller must present the
// authority handle registered for the asset; the org check alone is not
// enough, since the handle is what the backend's config is bound to.
func (s *SmartContract) Mint(ctx contractapi.TransactionContextInterface, assetID string, amount uint64, toWalletID string, authority string) error {
	mspID, err := ctx.GetClientIdentity().GetMSPID()
	if err != nil {
		return fmt.Errorf("failed to get MSP ID: %v", err)
	}
	if mspID != "LumiFoundationMSP" {
		return fmt.Errorf("unauthorized: only the foundation can mint LUMI")
	}

	assetBytes, err := ctx.GetStub().GetState(assetKey(assetID))
	if err != nil {
		return fmt.Errorf("failed to read asset: %v", err)
	}
	if assetBytes == nil {
		return fmt.Errorf("asset %s is not registered", assetID)
	}

	var asset Asset
	err = json.Unmarshal(assetBytes, &asset)
	if err != nil {
		return err
	}

	if asset.MintAuthority != authority {
		return fmt.Errorf("unauthorized: presented authority is not the registered mint authority for %s", assetID)
	}

	walletBytes, err := ctx.GetStub().GetState(toWalletID)
	if err != nil {
		return fmt.Errorf("failed to read wallet: %v", err)
	}
	if walletBytes == nil {
		return fmt.Errorf("wallet %s does not exist", toWalletID)
	}

	var wallet Wallet
	err = json.Unmarshal(walletBytes, &wallet)
	if err != nil {
		return err
	}

	if wallet.Status == StatusFrozen {
		return fmt.Errorf("wallet %s is frozen", toWalletID)
	}

	wallet.Balance += amount
	asset.TotalSupply += amount

	updatedWalletBytes, _ := json.Marshal(wallet)
	if err := ctx.GetStub().PutState(toWalletID, updatedWalletBytes); err != nil {
		return err
	}
	updatedAssetBytes, _ := json.Marshal(asset)
	if err := ctx.GetStub().PutState(assetKey(assetID), updatedAssetBytes); err != nil {
		return err
	}

	// Record Transaction
	tx := Transaction{
		ID:        ctx.GetStub().GetTxID(),
		Type:      "Mint",
		AssetID:   assetID,
		To:        toWalletID,
		Amount:    amount,
		Timestamp: time.Now().Unix(),
	}
	txBytes, _ := json.Marshal(tx)
	if err := ctx.GetStub().PutState(tx.ID, txBytes); err != nil {
		return err
	}

	eventBytes, _ := json.Marshal(IssuedEvent{
		AssetID: assetID,
		To:      toWalletID,
		Amount:  amount,
		TxID:    tx.ID,
	})
	return ctx.GetStub().SetEvent("LumiIssued", eventBytes)
}

// GetTotalSupply returns the asset's minted supply
func (s *SmartContract) GetTotalSupply(ctx contractapi.TransactionContextInterface, assetID string) (uint64, error) {
	assetBytes, err := ctx.GetStub().GetState(assetKey(assetID))
	if err != nil {
		return 0, fmt.Errorf("failed to read asset: %v", err)
	}
	if assetBytes == nil {
		return 0, fmt.Errorf("asset %s is not registered", assetID)
	}

	var asset Asset
	if err := json.Unmarshal(assetBytes, &asset); err != nil {
		return 0, err
	}
	return asset.TotalSupply, nil
}

// GetBalance returns a wallet's balance
func (s *SmartContract) GetBalance(ctx contractapi.TransactionContextInterface, walletID string) (uint64, error) {
	walletBytes, err := ctx.GetStub().GetState(walletID)
	if err != nil {
		return 0, fmt.Errorf("failed to read wallet: %v", err)
	}
	if walletBytes == nil {
		return 0, fmt.Errorf("wallet %s does not exist", walletID)
	}

	var wallet Wallet
	if err := json.Unmarshal(walletBytes, &wallet); err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// FreezeWallet blocks a wallet from receiving mints
func (s *SmartContract) FreezeWallet(ctx contractapi.TransactionContextInterface, walletID string) error {
	return s.setWalletStatus(ctx, walletID, StatusFrozen)
}

// UnfreezeWallet unblocks a wallet
func (s *SmartContract) UnfreezeWallet(ctx contractapi.TransactionContextInterface, walletID string) error {
	return s.setWalletStatus(ctx, walletID, StatusActive)
}

func (s *SmartContract) setWalletStatus(ctx contractapi.TransactionContextInterface, walletID string, status string) error {
	mspID, err := ctx.GetClientIdentity().GetMSPID()
	if err != nil {
		return fmt.Errorf("failed to get MSP ID: %v", err)
	}
	if mspID != "LumiFoundationMSP" {
		return fmt.Errorf("unauthorized: only the foundation can change wallet status")
	}

	walletBytes, err := ctx.GetStub().GetState(walletID)
	if err != nil {
		return err
	}
	if walletBytes == nil {
		return fmt.Errorf("wallet %s does not exist", walletID)
	}

	var wallet Wallet
	err = json.Unmarshal(walletBytes, &wallet)
	if err != nil {
		return err
	}

	wallet.Status = status
	updatedWalletBytes, _ := json.Marshal(wallet)
	return ctx.GetStub().PutState(walletID, updatedWalletBytes)
}

func assetKey(assetID string) string {
	return "ASSET_" + assetID
}

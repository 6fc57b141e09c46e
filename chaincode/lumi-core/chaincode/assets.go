package chaincode

// Asset is a mintable token registered on the ledger together with the
// authority handle allowed to grow its supply.
type Asset struct {
	ID            string `json:"id"`
	MintAuthority string `json:"mint_authority"`
	TotalSupply   uint64 `json:"total_supply"`
}

// Wallet represents a holding account for minted LUMI
type Wallet struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"` // Pseudonymous ID
	Status  string `json:"status"`   // Active, Frozen
	Balance uint64 `json:"balance"`
}

// Transaction represents a supply movement
type Transaction struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // Mint
	AssetID   string `json:"asset_id"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// IssuedEvent is the payload of the LumiIssued chaincode event
type IssuedEvent struct {
	AssetID string `json:"asset_id"`
	To      string `json:"to"`
	Amount  uint64 `json:"amount"`
	TxID    string `json:"tx_id"`
}

const (
	StatusActive = "Active"
	StatusFrozen = "Frozen"
)

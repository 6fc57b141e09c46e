package models

import "time"

type RegisterRequest struct {
	WalletID string `json:"wallet_id"`
	Secret   string `json:"secret"`
}

type TokenRequest struct {
	WalletID string `json:"wallet_id"`
	Secret   string `json:"secret"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type InitConfigRequest struct {
	AssetID           string `json:"asset_id"`
	DailyCapPerIssuer uint64 `json:"daily_cap_per_issuer"`
}

type AddIssuerRequest struct {
	WalletID string `json:"wallet_id"`
}

// IssueRequest asks the service to mint LUMI to a recipient wallet.
// EvidenceRef is typically an IPFS CID justifying the issuance.
type IssueRequest struct {
	Amount      uint64 `json:"amount"`
	ReasonCode  string `json:"reason_code"`
	EvidenceRef string `json:"evidence_ref"`
	To          string `json:"to"`
}

type IssueResponse struct {
	EventID     string    `json:"event_id"`
	Issuer      string    `json:"issuer"`
	Recipient   string    `json:"recipient"`
	Amount      uint64    `json:"amount"`
	ReasonCode  string    `json:"reason_code"`
	EvidenceRef string    `json:"evidence_ref"`
	Timestamp   time.Time `json:"timestamp"`
}

type IssuerStatusResponse struct {
	Wallet         string `json:"wallet"`
	Active         bool   `json:"active"`
	IssuedToday    uint64 `json:"issued_today"`
	LastIssueDay   uint64 `json:"last_issue_day"`
	DailyCap       uint64 `json:"daily_cap"`
	RemainingToday uint64 `json:"remaining_today"`
}

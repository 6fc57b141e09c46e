package issuance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ConfigSlot is the single slot the global config lives at. Initialization of
// an occupied slot is rejected, which is what makes the config a singleton.
const ConfigSlot = "global"

// SecondsPerDay converts unix time to the UTC day index used for quotas.
const SecondsPerDay = 86_400

// Config is the global issuance configuration. Immutable after creation.
type Config struct {
	ID                string    `json:"id"`
	Admin             string    `json:"admin"`
	AssetID           string    `json:"asset_id"`
	AuthorityHandle   string    `json:"authority_handle"`
	DailyCapPerIssuer uint64    `json:"daily_cap_per_issuer"`
	CreatedAt         time.Time `json:"created_at"`
}

// Issuer is one authorized wallet's quota record. The issued_today and
// last_issue_day pair is the per-issuer daily ledger; it only ever moves
// forward under the controller.
type Issuer struct {
	ConfigID     string    `json:"config_id"`
	Wallet       string    `json:"wallet"`
	IssuedToday  uint64    `json:"issued_today"`
	LastIssueDay uint64    `json:"last_issue_day"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event is the append-only notification written once per successful issuance.
// The core never reads it back.
type Event struct {
	ID          string     `json:"id"`
	Issuer      string     `json:"issuer"`
	Recipient   string     `json:"recipient"`
	Amount      uint64     `json:"amount"`
	ReasonCode  ReasonCode `json:"reason_code"`
	EvidenceRef string     `json:"evidence_ref"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ReasonCode is the fixed 8-byte tag attached to every issuance. Shorter
// strings are zero-padded on the wire and trimmed when rendered.
type ReasonCode [8]byte

// ParseReasonCode validates and pads a string tag.
func ParseReasonCode(s string) (ReasonCode, error) {
	var rc ReasonCode
	if len(s) > len(rc) {
		return rc, fmt.Errorf("reason code %q exceeds %d bytes", s, len(rc))
	}
	copy(rc[:], s)
	return rc, nil
}

func (rc ReasonCode) String() string {
	return string(bytes.TrimRight(rc[:], "\x00"))
}

func (rc ReasonCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(rc.String())
}

func (rc *ReasonCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseReasonCode(s)
	if err != nil {
		return err
	}
	*rc = parsed
	return nil
}

// DayIndex maps a wall-clock instant to its UTC day index.
func DayIndex(t time.Time) uint64 {
	unix := t.Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix) / SecondsPerDay
}

// rollover resets the quota window when the day has changed. A day with no
// issuance attempts is simply skipped; the reset happens lazily on the next
// attempt.
func rollover(iss Issuer, day uint64) Issuer {
	if iss.LastIssueDay != day {
		iss.LastIssueDay = day
		iss.IssuedToday = 0
	}
	return iss
}

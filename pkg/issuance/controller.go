package issuance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Ledger is the outward mint capability. The core only ever increases supply
// toward an existing recipient account; balances, transfers and account
// provisioning belong to the ledger and its clients.
type Ledger interface {
	Mint(assetID string, amount uint64, recipient string, authority Credential) error
}

// Variant selects which external ledger contract a mint targets. The control
// logic is identical for both; only the capability's destination differs.
type Variant int

const (
	VariantStandard Variant = iota
	VariantLegacy
)

// IssueRequest carries one issuance attempt.
type IssueRequest struct {
	Amount      uint64
	ReasonCode  ReasonCode
	EvidenceRef string
	Recipient   string
	Variant     Variant
}

// Controller validates issuance requests against the registry and quota
// state, invokes the external mint capability, and commits the quota update.
type Controller struct {
	store     Store
	ledgers   map[Variant]Ledger
	authority MintAuthority
	now       func() time.Time
}

func NewController(store Store, standard, legacy Ledger, authority MintAuthority) *Controller {
	ledgers := make(map[Variant]Ledger)
	if standard != nil {
		ledgers[VariantStandard] = standard
	}
	if legacy != nil {
		ledgers[VariantLegacy] = legacy
	}
	return &Controller{
		store:     store,
		ledgers:   ledgers,
		authority: authority,
		now:       time.Now,
	}
}

// InitializeConfig claims the config slot, binding the caller as admin and
// recording the derived minting-authority handle. A second call fails with
// ErrAlreadyInitialized and leaves the first config untouched.
func (c *Controller) InitializeConfig(admin, assetID string, dailyCap uint64) (Config, error) {
	cfg := Config{
		ID:                ConfigSlot,
		Admin:             admin,
		AssetID:           assetID,
		AuthorityHandle:   string(c.authority.Sign()),
		DailyCapPerIssuer: dailyCap,
		CreatedAt:         c.now(),
	}
	if err := c.store.InitConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AddIssuer registers a wallet as an authorized issuer. Admin only.
func (c *Controller) AddIssuer(caller, wallet string) (Issuer, error) {
	cfg, err := c.store.GetConfig()
	if err != nil {
		return Issuer{}, err
	}
	if caller != cfg.Admin {
		return Issuer{}, ErrUnauthorized
	}
	iss := Issuer{
		ConfigID:  cfg.ID,
		Wallet:    wallet,
		Active:    true,
		CreatedAt: c.now(),
	}
	if err := c.store.AddIssuer(iss); err != nil {
		return Issuer{}, err
	}
	return iss, nil
}

// Issue runs the issuance state machine: resolve the caller's record, gate on
// the active flag, roll the day window over if needed, check the quota with
// saturating arithmetic, mint on the external ledger, then commit the quota
// increment and the event as one unit. A failed mint commits nothing.
func (c *Controller) Issue(caller string, req IssueRequest) (Event, error) {
	ledger, ok := c.ledgers[req.Variant]
	if !ok {
		return Event{}, ErrLedgerUnavailable
	}

	var out Event
	err := c.store.IssueTx(ConfigSlot, caller, func(cfg Config, iss Issuer) (Issuer, Event, error) {
		if !iss.Active {
			return iss, Event{}, ErrIssuerInactive
		}
		if iss.Wallet != caller {
			// The record was resolved by caller identity, but the binding is
			// the authorization boundary, so re-check it.
			return iss, Event{}, ErrUnauthorized
		}

		iss = rollover(iss, DayIndex(c.now()))
		if saturatingAdd(iss.IssuedToday, req.Amount) > cfg.DailyCapPerIssuer {
			return iss, Event{}, ErrDailyCapExceeded
		}

		if err := ledger.Mint(cfg.AssetID, req.Amount, req.Recipient, c.authority.Sign()); err != nil {
			return iss, Event{}, fmt.Errorf("%w: %v", ErrLedgerFailed, err)
		}

		iss.IssuedToday = saturatingAdd(iss.IssuedToday, req.Amount)
		ev := Event{
			ID:          uuid.NewString(),
			Issuer:      iss.Wallet,
			Recipient:   req.Recipient,
			Amount:      req.Amount,
			ReasonCode:  req.ReasonCode,
			EvidenceRef: req.EvidenceRef,
			CreatedAt:   c.now(),
		}
		out = ev
		return iss, ev, nil
	})
	if err != nil {
		if errors.Is(err, ErrIssuerNotFound) {
			return Event{}, ErrUnauthorized
		}
		return Event{}, err
	}

	return out, nil
}

// IssuerStatus returns one issuer's quota record. Restricted to the admin
// and the issuer itself.
func (c *Controller) IssuerStatus(caller, wallet string) (Issuer, Config, error) {
	cfg, err := c.store.GetConfig()
	if err != nil {
		return Issuer{}, Config{}, err
	}
	if caller != cfg.Admin && caller != wallet {
		return Issuer{}, Config{}, ErrUnauthorized
	}
	iss, err := c.store.GetIssuer(cfg.ID, wallet)
	if err != nil {
		return Issuer{}, Config{}, err
	}
	return iss, cfg, nil
}

// RemainingToday computes the quota left for the given instant, accounting
// for a pending lazy rollover.
func RemainingToday(iss Issuer, cfg Config, at time.Time) uint64 {
	iss = rollover(iss, DayIndex(at))
	if iss.IssuedToday >= cfg.DailyCapPerIssuer {
		return 0
	}
	return cfg.DailyCapPerIssuer - iss.IssuedToday
}

// saturatingAdd clamps at the top of the range so an overflowing request is
// rejected by the cap check instead of wrapping past it.
func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return math.MaxUint64
}

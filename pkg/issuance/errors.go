package issuance

import "errors"

var (
	// ErrAlreadyInitialized is returned when the config slot is occupied.
	ErrAlreadyInitialized = errors.New("config already initialized")
	// ErrNotInitialized is returned when no config exists yet.
	ErrNotInitialized = errors.New("config not initialized")
	// ErrAlreadyExists is returned when a wallet is registered twice.
	ErrAlreadyExists = errors.New("issuer already exists")
	// ErrUnauthorized covers non-admin registry calls, issuance attempts by
	// wallets without a matching record, and record/caller mismatches. Issue
	// reports unknown wallets as ErrUnauthorized so the API does not reveal
	// which wallets are registered.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrIssuerNotFound reports a missing issuer record to callers that are
	// allowed to know, such as the admin status query.
	ErrIssuerNotFound = errors.New("issuer record not found")
	// ErrIssuerInactive is returned when the issuer record is deactivated.
	ErrIssuerInactive = errors.New("issuer is inactive")
	// ErrDailyCapExceeded is returned when a mint would push the issuer past
	// its daily cap. Recoverable after the next day boundary.
	ErrDailyCapExceeded = errors.New("daily cap exceeded")
	// ErrLedgerUnavailable is returned when the requested ledger variant has
	// no connected client.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrLedgerFailed wraps an external mint failure. The whole issuance
	// aborts with no quota mutation and no event.
	ErrLedgerFailed = errors.New("ledger mint failed")
)

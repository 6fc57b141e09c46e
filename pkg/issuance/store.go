package issuance

// Store persists the config slot, issuer records, wallet credentials and the
// append-only event log. Implementations must make IssueTx exclusive per
// issuer record: the chain runtime the original design ran on serialized all
// mutations of a record, and without an equivalent lock two concurrent
// issuance calls could both pass the quota check.
type Store interface {
	// InitConfig claims the config slot. ErrAlreadyInitialized if occupied.
	InitConfig(cfg Config) error
	// GetConfig returns the config. ErrNotInitialized if absent.
	GetConfig() (Config, error)
	// AddIssuer registers a wallet. ErrAlreadyExists on a duplicate,
	// ErrNotInitialized if the config slot is empty.
	AddIssuer(iss Issuer) error
	// GetIssuer returns one issuer record. ErrIssuerNotFound if absent.
	GetIssuer(configID, wallet string) (Issuer, error)
	// IssueTx runs fn under an exclusive lock on the issuer record and, if
	// fn succeeds, commits the updated record together with the event as one
	// unit. Any error from fn aborts with no observable state change.
	// Missing records surface as ErrIssuerNotFound without invoking fn.
	IssueTx(configID, wallet string, fn func(cfg Config, iss Issuer) (Issuer, Event, error)) error

	// PutCredential stores a wallet's bcrypt secret hash.
	// ErrAlreadyExists if the wallet already registered one.
	PutCredential(wallet, secretHash string) error
	// GetCredential returns the stored hash. ErrIssuerNotFound if absent.
	GetCredential(wallet string) (string, error)
}

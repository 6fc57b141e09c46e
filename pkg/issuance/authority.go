package issuance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Credential is the opaque handle presented to the external ledger to prove
// minting rights. The ledger verifies it against the handle registered for
// the asset; the core never holds raw key material beyond the derivation key.
type Credential string

// MintAuthority produces the credential the controller presents on every
// mint. Injected at construction so the controller stays key-agnostic.
type MintAuthority interface {
	Sign() Credential
}

// KeyedAuthority derives the credential deterministically from the config
// slot with a keyed hash, standing in for the chain runtime's derived
// program authority.
type KeyedAuthority struct {
	key    []byte
	config string
}

func NewKeyedAuthority(key []byte, configID string) KeyedAuthority {
	return KeyedAuthority{key: key, config: configID}
}

func (a KeyedAuthority) Sign() Credential {
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte("mint_authority"))
	mac.Write([]byte(a.config))
	return Credential(hex.EncodeToString(mac.Sum(nil)))
}

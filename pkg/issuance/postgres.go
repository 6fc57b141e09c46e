package issuance

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore keeps the config slot, issuer records, credentials and the
// event log in Postgres. IssueTx takes a FOR UPDATE row lock on the issuer,
// which is the per-record serialization the original chain runtime provided
// for free.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InitConfig(cfg Config) error {
	res, err := s.db.Exec(`
		INSERT INTO issuance_db.config (id, admin_wallet, asset_id, authority_handle, daily_cap_per_issuer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		cfg.ID, cfg.Admin, cfg.AssetID, cfg.AuthorityHandle, int64(cfg.DailyCapPerIssuer), cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert config: %v", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %v", err)
	}
	if rows == 0 {
		return ErrAlreadyInitialized
	}
	return nil
}

func (s *PostgresStore) GetConfig() (Config, error) {
	var cfg Config
	var capRaw int64
	err := s.db.QueryRow(`
		SELECT id, admin_wallet, asset_id, authority_handle, daily_cap_per_issuer, created_at
		FROM issuance_db.config WHERE id = $1`, ConfigSlot).
		Scan(&cfg.ID, &cfg.Admin, &cfg.AssetID, &cfg.AuthorityHandle, &capRaw, &cfg.CreatedAt)
	if err == sql.ErrNoRows {
		return Config{}, ErrNotInitialized
	} else if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %v", err)
	}
	cfg.DailyCapPerIssuer = uint64(capRaw)
	return cfg, nil
}

func (s *PostgresStore) AddIssuer(iss Issuer) error {
	_, err := s.db.Exec(`
		INSERT INTO issuance_db.issuers (config_id, wallet, issued_today, last_issue_day, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		iss.ConfigID, iss.Wallet, int64(iss.IssuedToday), int64(iss.LastIssueDay), iss.Active, iss.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrAlreadyExists
			case "23503": // foreign_key_violation
				return ErrNotInitialized
			}
		}
		return fmt.Errorf("failed to insert issuer: %v", err)
	}
	return nil
}

func (s *PostgresStore) GetIssuer(configID, wallet string) (Issuer, error) {
	return scanIssuer(s.db.QueryRow(`
		SELECT config_id, wallet, issued_today, last_issue_day, active, created_at
		FROM issuance_db.issuers WHERE config_id = $1 AND wallet = $2`, configID, wallet))
}

func (s *PostgresStore) IssueTx(configID, wallet string, fn func(cfg Config, iss Issuer) (Issuer, Event, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var cfg Config
	var capRaw int64
	err = tx.QueryRow(`
		SELECT id, admin_wallet, asset_id, authority_handle, daily_cap_per_issuer, created_at
		FROM issuance_db.config WHERE id = $1`, configID).
		Scan(&cfg.ID, &cfg.Admin, &cfg.AssetID, &cfg.AuthorityHandle, &capRaw, &cfg.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrNotInitialized
	} else if err != nil {
		return fmt.Errorf("failed to read config: %v", err)
	}
	cfg.DailyCapPerIssuer = uint64(capRaw)

	// The row lock serializes concurrent issuance for this issuer; every
	// caller sees the committed quota of the previous one.
	iss, err := scanIssuer(tx.QueryRow(`
		SELECT config_id, wallet, issued_today, last_issue_day, active, created_at
		FROM issuance_db.issuers WHERE config_id = $1 AND wallet = $2 FOR UPDATE`, configID, wallet))
	if err != nil {
		return err
	}

	updated, ev, err := fn(cfg, iss)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		UPDATE issuance_db.issuers SET issued_today = $1, last_issue_day = $2
		WHERE config_id = $3 AND wallet = $4`,
		int64(updated.IssuedToday), int64(updated.LastIssueDay), configID, wallet)
	if err != nil {
		return fmt.Errorf("failed to update issuer: %v", err)
	}

	_, err = tx.Exec(`
		INSERT INTO issuance_db.issuance_events (id, issuer, recipient, amount, reason_code, evidence_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.Issuer, ev.Recipient, int64(ev.Amount), ev.ReasonCode.String(), ev.EvidenceRef, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record event: %v", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) PutCredential(wallet, secretHash string) error {
	_, err := s.db.Exec(`
		INSERT INTO issuance_db.credentials (wallet, secret_hash) VALUES ($1, $2)`,
		wallet, secretHash)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert credential: %v", err)
	}
	return nil
}

func (s *PostgresStore) GetCredential(wallet string) (string, error) {
	var hash string
	err := s.db.QueryRow(`
		SELECT secret_hash FROM issuance_db.credentials WHERE wallet = $1`, wallet).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrIssuerNotFound
	} else if err != nil {
		return "", fmt.Errorf("failed to read credential: %v", err)
	}
	return hash, nil
}

func scanIssuer(row *sql.Row) (Issuer, error) {
	var iss Issuer
	var issued, lastDay int64
	err := row.Scan(&iss.ConfigID, &iss.Wallet, &issued, &lastDay, &iss.Active, &iss.CreatedAt)
	if err == sql.ErrNoRows {
		return Issuer{}, ErrIssuerNotFound
	} else if err != nil {
		return Issuer{}, fmt.Errorf("failed to read issuer: %v", err)
	}
	iss.IssuedToday = uint64(issued)
	iss.LastIssueDay = uint64(lastDay)
	return iss, nil
}

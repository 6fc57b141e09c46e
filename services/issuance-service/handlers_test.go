package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumifoundation/lumi-backend/pkg/issuance"
)

// testStore is an in-memory issuance.Store for handler tests.
type testStore struct {
	mu      sync.Mutex
	cfg     *issuance.Config
	issuers map[string]issuance.Issuer
	creds   map[string]string
	events  []issuance.Event
}

func newTestStore() *testStore {
	return &testStore{
		issuers: make(map[string]issuance.Issuer),
		creds:   make(map[string]string),
	}
}

func (s *testStore) InitConfig(cfg issuance.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg != nil {
		return issuance.ErrAlreadyInitialized
	}
	c := cfg
	s.cfg = &c
	return nil
}

func (s *testStore) GetConfig() (issuance.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return issuance.Config{}, issuance.ErrNotInitialized
	}
	return *s.cfg, nil
}

func (s *testStore) AddIssuer(iss issuance.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return issuance.ErrNotInitialized
	}
	if _, ok := s.issuers[iss.Wallet]; ok {
		return issuance.ErrAlreadyExists
	}
	s.issuers[iss.Wallet] = iss
	return nil
}

func (s *testStore) GetIssuer(configID, wallet string) (issuance.Issuer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iss, ok := s.issuers[wallet]
	if !ok {
		return issuance.Issuer{}, issuance.ErrIssuerNotFound
	}
	return iss, nil
}

func (s *testStore) IssueTx(configID, wallet string, fn func(cfg issuance.Config, iss issuance.Issuer) (issuance.Issuer, issuance.Event, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return issuance.ErrNotInitialized
	}
	iss, ok := s.issuers[wallet]
	if !ok {
		return issuance.ErrIssuerNotFound
	}
	updated, ev, err := fn(*s.cfg, iss)
	if err != nil {
		return err
	}
	s.issuers[wallet] = updated
	s.events = append(s.events, ev)
	return nil
}

func (s *testStore) PutCredential(wallet, secretHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[wallet]; ok {
		return issuance.ErrAlreadyExists
	}
	s.creds[wallet] = secretHash
	return nil
}

func (s *testStore) GetCredential(wallet string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.creds[wallet]
	if !ok {
		return "", issuance.ErrIssuerNotFound
	}
	return hash, nil
}

type stubLedger struct {
	err    error
	minted []uint64
}

func (l *stubLedger) Mint(assetID string, amount uint64, recipient string, authority issuance.Credential) error {
	if l.err != nil {
		return l.err
	}
	l.minted = append(l.minted, amount)
	return nil
}

func newTestService() (*Service, *testStore, *stubLedger) {
	store := newTestStore()
	ledger := &stubLedger{}
	authority := issuance.NewKeyedAuthority([]byte("test-authority-key"), issuance.ConfigSlot)
	controller := issuance.NewController(store, ledger, ledger, authority)
	svc := &Service{
		store:      store,
		controller: controller,
		jwtSecret:  []byte("test-jwt-secret"),
	}
	return svc, store, ledger
}

func doJSON(t *testing.T, svc *Service, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)
	return rec
}

func obtainToken(t *testing.T, svc *Service, wallet, secret string) string {
	t.Helper()
	rec := doJSON(t, svc, "POST", "/auth/register", "", map[string]string{
		"wallet_id": wallet, "secret": secret,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, svc, "POST", "/auth/token", "", map[string]string{
		"wallet_id": wallet, "secret": secret,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestIssuanceFlow(t *testing.T) {
	svc, store, ledger := newTestService()

	adminToken := obtainToken(t, svc, "admin-wallet", "admin-secret")

	rec := doJSON(t, svc, "POST", "/config/init", adminToken, map[string]interface{}{
		"asset_id": "lumi-asset", "daily_cap_per_issuer": 1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, svc, "POST", "/issuers", adminToken, map[string]string{
		"wallet_id": "issuer-wallet",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	issuerToken := obtainToken(t, svc, "issuer-wallet", "issuer-secret")
	rec = doJSON(t, svc, "POST", "/issue", issuerToken, map[string]interface{}{
		"amount": 400, "reason_code": "UBI", "evidence_ref": "bafyexample", "to": "recipient-wallet",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Amount    uint64 `json:"amount"`
		Issuer    string `json:"issuer"`
		Recipient string `json:"recipient"`
		EventID   string `json:"event_id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, uint64(400), resp.Amount)
	require.Equal(t, "issuer-wallet", resp.Issuer)
	require.Equal(t, "recipient-wallet", resp.Recipient)
	require.NotEmpty(t, resp.EventID)
	require.Equal(t, []uint64{400}, ledger.minted)
	require.Len(t, store.events, 1)

	// Over the cap
	rec = doJSON(t, svc, "POST", "/issue", issuerToken, map[string]interface{}{
		"amount": 700, "reason_code": "UBI", "evidence_ref": "bafyexample", "to": "recipient-wallet",
	})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Status visible to the issuer
	rec = doJSON(t, svc, "GET", "/issuers/issuer-wallet", issuerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		IssuedToday    uint64 `json:"issued_today"`
		RemainingToday uint64 `json:"remaining_today"`
		Active         bool   `json:"active"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	require.Equal(t, uint64(400), status.IssuedToday)
	require.Equal(t, uint64(600), status.RemainingToday)
	require.True(t, status.Active)
}

func TestIssueRequiresToken(t *testing.T) {
	svc, _, _ := newTestService()

	rec := doJSON(t, svc, "POST", "/issue", "", map[string]interface{}{
		"amount": 1, "reason_code": "UBI", "to": "recipient-wallet",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, svc, "POST", "/issue", "not-a-jwt", map[string]interface{}{
		"amount": 1, "reason_code": "UBI", "to": "recipient-wallet",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueByUnregisteredWallet(t *testing.T) {
	svc, _, _ := newTestService()

	adminToken := obtainToken(t, svc, "admin-wallet", "admin-secret")
	rec := doJSON(t, svc, "POST", "/config/init", adminToken, map[string]interface{}{
		"asset_id": "lumi-asset", "daily_cap_per_issuer": 1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	strangerToken := obtainToken(t, svc, "stranger-wallet", "secret")
	rec = doJSON(t, svc, "POST", "/issue", strangerToken, map[string]interface{}{
		"amount": 1, "reason_code": "UBI", "to": "recipient-wallet",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterDuplicateWallet(t *testing.T) {
	svc, _, _ := newTestService()

	rec := doJSON(t, svc, "POST", "/auth/register", "", map[string]string{
		"wallet_id": "w1", "secret": "s1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, svc, "POST", "/auth/register", "", map[string]string{
		"wallet_id": "w1", "secret": "s2",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTokenWrongSecret(t *testing.T) {
	svc, _, _ := newTestService()

	rec := doJSON(t, svc, "POST", "/auth/register", "", map[string]string{
		"wallet_id": "w1", "secret": "right",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, svc, "POST", "/auth/token", "", map[string]string{
		"wallet_id": "w1", "secret": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, svc, "POST", "/auth/token", "", map[string]string{
		"wallet_id": "unknown", "secret": "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInitConfigValidation(t *testing.T) {
	svc, _, _ := newTestService()
	adminToken := obtainToken(t, svc, "admin-wallet", "admin-secret")

	// Zero cap would make issuance permanently impossible
	rec := doJSON(t, svc, "POST", "/config/init", adminToken, map[string]interface{}{
		"asset_id": "lumi-asset", "daily_cap_per_issuer": 0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, svc, "POST", "/config/init", adminToken, map[string]interface{}{
		"asset_id": "lumi-asset", "daily_cap_per_issuer": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, svc, "POST", "/config/init", adminToken, map[string]interface{}{
		"asset_id": "lumi-asset", "daily_cap_per_issuer": 100,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddIssuerNonAdmin(t *testing.T) {
	svc, _, _ := newTestService()

	adminToken := obtainToken(t, svc, "admin-wallet", "admin-secret")
	rec := doJSON(t, svc, "POST", "/config/init", adminToken, map[string]interface{}{
		"asset_id": "lumi-asset", "daily_cap_per_issuer": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	otherToken := obtainToken(t, svc, "other-wallet", "secret")
	rec = doJSON(t, svc, "POST", "/issuers", otherToken, map[string]string{
		"wallet_id": "issuer-wallet",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIssueValidation(t *testing.T) {
	svc, _, _ := newTestService()

	adminToken := obtainToken(t, svc, "admin-wallet", "admin-secret")
	rec := doJSON(t, svc, "POST", "/config/init", adminToken, map[string]interface{}{
		"asset_id": "lumi-asset", "daily_cap_per_issuer": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, svc, "POST", "/issuers", adminToken, map[string]string{"wallet_id": "issuer-wallet"})
	require.Equal(t, http.StatusCreated, rec.Code)
	issuerToken := obtainToken(t, svc, "issuer-wallet", "secret")

	rec = doJSON(t, svc, "POST", "/issue", issuerToken, map[string]interface{}{
		"amount": 0, "reason_code": "UBI", "to": "recipient-wallet",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, svc, "POST", "/issue", issuerToken, map[string]interface{}{
		"amount": 1, "reason_code": "UBI", "to": "",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, svc, "POST", "/issue", issuerToken, map[string]interface{}{
		"amount": 1, "reason_code": "far-too-long-code", "to": "recipient-wallet",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueLedgerFailure(t *testing.T) {
	svc, store, ledger := newTestService()

	adminToken := obtainToken(t, svc, "admin-wallet", "admin-secret")
	rec := doJSON(t, svc, "POST", "/config/init", adminToken, map[string]interface{}{
		"asset_id": "lumi-asset", "daily_cap_per_issuer": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, svc, "POST", "/issuers", adminToken, map[string]string{"wallet_id": "issuer-wallet"})
	require.Equal(t, http.StatusCreated, rec.Code)
	issuerToken := obtainToken(t, svc, "issuer-wallet", "secret")

	ledger.err = errors.New("recipient wallet does not exist")
	rec = doJSON(t, svc, "POST", "/issue", issuerToken, map[string]interface{}{
		"amount": 10, "reason_code": "UBI", "to": "missing-wallet",
	})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Zero(t, store.issuers["issuer-wallet"].IssuedToday)
	require.Empty(t, store.events)
}

func TestSupplyWithoutLedger(t *testing.T) {
	svc, _, _ := newTestService()

	rec := doJSON(t, svc, "GET", "/supply", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	svc, _, _ := newTestService()

	rec := doJSON(t, svc, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

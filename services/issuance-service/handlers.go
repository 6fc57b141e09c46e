package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumifoundation/lumi-backend/pkg/common"
	"github.com/lumifoundation/lumi-backend/pkg/common/api"
	"github.com/lumifoundation/lumi-backend/pkg/issuance"
	"github.com/lumifoundation/lumi-backend/pkg/ledgerclient"
	"github.com/lumifoundation/lumi-backend/services/issuance-service/models"
)

type Service struct {
	db         *sql.DB
	store      issuance.Store
	controller *issuance.Controller
	ledger     *ledgerclient.Client
	jwtSecret  []byte
}

// RegisterHandler stores a wallet's API secret. Holding the secret is how a
// caller proves control of the wallet identity from then on.
func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}
	if req.WalletID == "" || req.Secret == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "wallet_id and secret are required", "")
		return
	}

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(req.Secret), bcrypt.DefaultCost)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to hash secret", "")
		return
	}

	if err := s.store.PutCredential(req.WalletID, string(hashedSecret)); err != nil {
		if errors.Is(err, issuance.ErrAlreadyExists) {
			api.WriteError(w, http.StatusConflict, "wallet_exists", "Wallet already registered", "")
			return
		}
		traceID := api.NewTraceID()
		log.Printf("[%s] Failed to store credential: %v", traceID, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Database error", traceID)
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]string{"wallet_id": req.WalletID, "status": "registered"})
}

// TokenHandler exchanges a wallet secret for a bearer token bound to that
// wallet identity.
func (s *Service) TokenHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}

	hash, err := s.store.GetCredential(req.WalletID)
	if errors.Is(err, issuance.ErrIssuerNotFound) {
		api.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid wallet or secret", "")
		return
	} else if err != nil {
		traceID := api.NewTraceID()
		log.Printf("[%s] Failed to read credential: %v", traceID, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Database error", traceID)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Secret)); err != nil {
		api.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid wallet or secret", "")
		return
	}

	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &common.IdentityClaims{
		WalletID: req.WalletID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			Issuer:    "lumi-issuance-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token", "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, models.TokenResponse{Token: tokenString, ExpiresAt: expirationTime.Unix()})
}

// InitConfigHandler claims the config slot. The caller becomes admin.
func (s *Service) InitConfigHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.CallerWallet(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing identity", "")
		return
	}

	var req models.InitConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}
	if req.AssetID == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "asset_id is required", "")
		return
	}
	// A zero cap would make every issuance fail forever.
	if req.DailyCapPerIssuer == 0 {
		api.WriteError(w, http.StatusBadRequest, "invalid_amount", "daily_cap_per_issuer must be positive", "")
		return
	}

	cfg, err := s.controller.InitializeConfig(caller, req.AssetID, req.DailyCapPerIssuer)
	if err != nil {
		s.writeIssuanceError(w, err)
		return
	}

	log.Printf("Config initialized by %s: asset=%s cap=%d", caller, cfg.AssetID, cfg.DailyCapPerIssuer)
	api.WriteSuccess(w, http.StatusCreated, cfg)
}

// AddIssuerHandler registers a wallet as an authorized issuer. Admin only.
func (s *Service) AddIssuerHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.CallerWallet(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing identity", "")
		return
	}

	var req models.AddIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}
	if req.WalletID == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "wallet_id is required", "")
		return
	}

	iss, err := s.controller.AddIssuer(caller, req.WalletID)
	if err != nil {
		s.writeIssuanceError(w, err)
		return
	}

	log.Printf("Issuer added by %s: %s", caller, iss.Wallet)
	api.WriteSuccess(w, http.StatusCreated, iss)
}

// IssueHandler mints LUMI through the current token contract.
func (s *Service) IssueHandler(w http.ResponseWriter, r *http.Request) {
	s.issue(w, r, issuance.VariantStandard)
}

// IssueLegacyHandler mints LUMI through the legacy token contract.
func (s *Service) IssueLegacyHandler(w http.ResponseWriter, r *http.Request) {
	s.issue(w, r, issuance.VariantLegacy)
}

func (s *Service) issue(w http.ResponseWriter, r *http.Request, variant issuance.Variant) {
	caller, ok := common.CallerWallet(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing identity", "")
		return
	}

	var req models.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", "")
		return
	}
	if req.Amount == 0 {
		api.WriteError(w, http.StatusBadRequest, "invalid_amount", "Amount must be positive", "")
		return
	}
	if req.To == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid_request", "to is required", "")
		return
	}
	reasonCode, err := issuance.ParseReasonCode(req.ReasonCode)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid_reason_code", err.Error(), "")
		return
	}

	ev, err := s.controller.Issue(caller, issuance.IssueRequest{
		Amount:      req.Amount,
		ReasonCode:  reasonCode,
		EvidenceRef: req.EvidenceRef,
		Recipient:   req.To,
		Variant:     variant,
	})
	if err != nil {
		s.writeIssuanceError(w, err)
		return
	}

	log.Printf("LUMI Issued: %d to %s by %s - Reason: %s", ev.Amount, ev.Recipient, ev.Issuer, ev.ReasonCode)

	api.WriteSuccess(w, http.StatusOK, models.IssueResponse{
		EventID:     ev.ID,
		Issuer:      ev.Issuer,
		Recipient:   ev.Recipient,
		Amount:      ev.Amount,
		ReasonCode:  ev.ReasonCode.String(),
		EvidenceRef: ev.EvidenceRef,
		Timestamp:   ev.CreatedAt,
	})
}

// IssuerStatusHandler returns one issuer's quota record. Admin or self.
func (s *Service) IssuerStatusHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.CallerWallet(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing identity", "")
		return
	}

	wallet := mux.Vars(r)["wallet"]
	iss, cfg, err := s.controller.IssuerStatus(caller, wallet)
	if err != nil {
		s.writeIssuanceError(w, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, models.IssuerStatusResponse{
		Wallet:         iss.Wallet,
		Active:         iss.Active,
		IssuedToday:    iss.IssuedToday,
		LastIssueDay:   iss.LastIssueDay,
		DailyCap:       cfg.DailyCapPerIssuer,
		RemainingToday: issuance.RemainingToday(iss, cfg, time.Now()),
	})
}

// SupplyHandler returns the asset's total minted supply from the ledger.
func (s *Service) SupplyHandler(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "ledger_unavailable", "Ledger not connected", "")
		return
	}

	assetID := r.URL.Query().Get("asset_id")
	if assetID == "" {
		cfg, err := s.store.GetConfig()
		if err != nil {
			s.writeIssuanceError(w, err)
			return
		}
		assetID = cfg.AssetID
	}

	supply, err := s.ledger.TotalSupply(assetID)
	if err != nil {
		api.WriteError(w, http.StatusBadGateway, "ledger_error", err.Error(), "")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{"asset_id": assetID, "total_supply": supply})
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "issuance-service",
	})
}

// writeIssuanceError maps core errors to the API's stable codes.
func (s *Service) writeIssuanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, issuance.ErrAlreadyInitialized):
		api.WriteError(w, http.StatusConflict, "already_initialized", "Config already initialized", "")
	case errors.Is(err, issuance.ErrNotInitialized):
		api.WriteError(w, http.StatusConflict, "not_initialized", "Config not initialized", "")
	case errors.Is(err, issuance.ErrAlreadyExists):
		api.WriteError(w, http.StatusConflict, "issuer_exists", "Issuer already exists", "")
	case errors.Is(err, issuance.ErrUnauthorized):
		api.WriteError(w, http.StatusForbidden, "unauthorized", "Unauthorized", "")
	case errors.Is(err, issuance.ErrIssuerNotFound):
		api.WriteError(w, http.StatusNotFound, "issuer_not_found", "Issuer not found", "")
	case errors.Is(err, issuance.ErrIssuerInactive):
		api.WriteError(w, http.StatusForbidden, "issuer_inactive", "Issuer is inactive", "")
	case errors.Is(err, issuance.ErrDailyCapExceeded):
		api.WriteError(w, http.StatusTooManyRequests, "daily_cap_exceeded", "Daily cap exceeded", "")
	case errors.Is(err, issuance.ErrLedgerUnavailable):
		api.WriteError(w, http.StatusServiceUnavailable, "ledger_unavailable", "Ledger not connected", "")
	case errors.Is(err, issuance.ErrLedgerFailed):
		traceID := api.NewTraceID()
		log.Printf("[%s] Ledger mint failed: %v", traceID, err)
		api.WriteError(w, http.StatusBadGateway, "ledger_error", "Ledger mint failed", traceID)
	default:
		traceID := api.NewTraceID()
		log.Printf("[%s] Request failed: %v", traceID, err)
		api.WriteError(w, http.StatusInternalServerError, "internal_error", "Internal error", traceID)
	}
}

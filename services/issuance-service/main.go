package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lumifoundation/lumi-backend/pkg/common"
	"github.com/lumifoundation/lumi-backend/pkg/common/db"
	"github.com/lumifoundation/lumi-backend/pkg/common/migrations"
	"github.com/lumifoundation/lumi-backend/pkg/issuance"
	"github.com/lumifoundation/lumi-backend/pkg/ledgerclient"
)

func main() {
	cfg := common.LoadConfig()

	// Connect to DB
	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	// Run Migrations
	if err := migrations.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to the ledger. The service starts without it so registry and
	// auth endpoints keep working, but issuance will report the ledger as
	// unavailable.
	var ledger *ledgerclient.Client
	ledger, err = ledgerclient.NewClient(
		cfg.FabricConfig,
		cfg.Channel,
		cfg.Contract,
		cfg.LegacyContract,
		cfg.MSP,
		cfg.CertPath,
		cfg.KeyPath,
		cfg.WalletDir,
	)
	if err != nil {
		log.Printf("Warning: Failed to connect to ledger: %v", err)
		ledger = nil
	} else {
		defer ledger.Close()
	}

	store := issuance.NewPostgresStore(database)
	authority := issuance.NewKeyedAuthority([]byte(cfg.AuthorityKey), issuance.ConfigSlot)

	var standard, legacy issuance.Ledger
	if ledger != nil {
		standard = ledger.Standard()
		legacy = ledger.Legacy()
	}
	controller := issuance.NewController(store, standard, legacy, authority)

	svc := &Service{
		db:         database,
		store:      store,
		controller: controller,
		ledger:     ledger,
		jwtSecret:  []byte(cfg.JWTSecret),
	}

	// Log ledger-side confirmations of our mints
	if ledger != nil {
		if _, events, err := ledger.RegisterIssuanceListener(); err != nil {
			log.Printf("Warning: Failed to register event listener: %v", err)
		} else {
			go func() {
				for ev := range events {
					log.Printf("Ledger confirmed issuance: tx=%s", ev.TxID)
				}
			}()
		}
	}

	log.Printf("Issuance Service running on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, svc.Router()))
}

// Router wires the API surface.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()

	// Credentials & tokens
	r.HandleFunc("/auth/register", s.RegisterHandler).Methods("POST")
	r.HandleFunc("/auth/token", s.TokenHandler).Methods("POST")

	// Configuration & registry (authenticated)
	r.Handle("/config/init", common.AuthMiddleware(s.jwtSecret, http.HandlerFunc(s.InitConfigHandler))).Methods("POST")
	r.Handle("/issuers", common.AuthMiddleware(s.jwtSecret, http.HandlerFunc(s.AddIssuerHandler))).Methods("POST")
	r.Handle("/issuers/{wallet}", common.AuthMiddleware(s.jwtSecret, http.HandlerFunc(s.IssuerStatusHandler))).Methods("GET")

	// Issuance (authenticated)
	r.Handle("/issue", common.AuthMiddleware(s.jwtSecret, http.HandlerFunc(s.IssueHandler))).Methods("POST")
	r.Handle("/issue/legacy", common.AuthMiddleware(s.jwtSecret, http.HandlerFunc(s.IssueLegacyHandler))).Methods("POST")

	// Ledger views
	r.HandleFunc("/supply", s.SupplyHandler).Methods("GET")

	// Health
	r.HandleFunc("/health", s.HealthHandler).Methods("GET")

	return r
}

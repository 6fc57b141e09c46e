package common

import (
	"os"
	"strconv"
)

type Config struct {
	Port           string
	JWTSecret      string
	AuthorityKey   string
	FabricConfig   string
	Channel        string
	Contract       string
	LegacyContract string
	MSP            string
	CertPath       string
	KeyPath        string
	WalletDir      string
	MigrationsDir  string
	DB             DBConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		JWTSecret:      getEnv("JWT_SECRET", "super-secret-key-change-me"),
		AuthorityKey:   getEnv("MINT_AUTHORITY_KEY", "dev-authority-key-change-me"),
		FabricConfig:   getEnv("FABRIC_CONFIG", "connection-profile.yaml"),
		Channel:        getEnv("FABRIC_CHANNEL", "lumi-main-channel"),
		Contract:       getEnv("FABRIC_CONTRACT", "lumi-core"),
		LegacyContract: getEnv("FABRIC_CONTRACT_LEGACY", "lumi-core-legacy"),
		MSP:            getEnv("MSP_ID", "LumiFoundationMSP"),
		CertPath:       getEnv("CERT_PATH", ""),
		KeyPath:        getEnv("KEY_PATH", ""),
		WalletDir:      getEnv("FABRIC_WALLET_DIR", "wallet"),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations/issuance"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "lumi"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// defaultBridgeLaunchWait is how long we give the mail bridge to come up after starting it.
const defaultBridgeLaunchWait = 15 * time.Second

type Config struct {
	Environment         string
	EncryptionKeyBase64 string
	DBHost              string
	DBPort              string
	DBUsername          string
	DBPassword          string
	DBName              string
	DBSSLMode           string
	AutoLaunch          bool
	BridgeAddress       string
	BridgeCommand       string
	BridgeLaunchWait    time.Duration
	IMAPUseTLS          bool
	MetricsTextfile     string
}

func NewConfig() (*Config, error) {
	env := os.Getenv("INVITESWEEP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	autoLaunch, err := getEnvBool("INVITESWEEP_AUTO_LAUNCH", false)
	if err != nil {
		return nil, err
	}

	useTLS, err := getEnvBool("INVITESWEEP_IMAP_TLS", true)
	if err != nil {
		return nil, err
	}

	launchWait, err := getEnvDuration("INVITESWEEP_BRIDGE_LAUNCH_WAIT", defaultBridgeLaunchWait)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Environment:         env,
		EncryptionKeyBase64: os.Getenv("INVITESWEEP_ENCRYPTION_KEY_BASE64"),
		DBHost:              getEnvOrDefault("INVITESWEEP_DB_HOST", "localhost"),
		DBPort:              getEnvOrDefault("INVITESWEEP_DB_PORT", "5432"),
		DBUsername:          getEnvOrDefault("INVITESWEEP_DB_USER", "invitesweep"),
		DBPassword:          os.Getenv("INVITESWEEP_DB_PASSWORD"),
		DBName:              getEnvOrDefault("INVITESWEEP_DB_NAME", "invitesweep"),
		DBSSLMode:           getEnvOrDefault("INVITESWEEP_DB_SSLMODE", "disable"),
		AutoLaunch:          autoLaunch,
		BridgeAddress:       os.Getenv("INVITESWEEP_BRIDGE_ADDRESS"),
		BridgeCommand:       os.Getenv("INVITESWEEP_BRIDGE_COMMAND"),
		BridgeLaunchWait:    launchWait,
		IMAPUseTLS:          useTLS,
		MetricsTextfile:     os.Getenv("INVITESWEEP_METRICS_TEXTFILE"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.EncryptionKeyBase64 == "" {
		return fmt.Errorf("INVITESWEEP_ENCRYPTION_KEY_BASE64 is required")
	}

	key, err := base64.StdEncoding.DecodeString(c.EncryptionKeyBase64)
	if err != nil {
		return fmt.Errorf("INVITESWEEP_ENCRYPTION_KEY_BASE64 is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("INVITESWEEP_ENCRYPTION_KEY_BASE64 must decode to 32 bytes, got %d", len(key))
	}

	if c.DBPassword == "" {
		return fmt.Errorf("INVITESWEEP_DB_PASSWORD is required")
	}

	if c.AutoLaunch && c.BridgeCommand == "" {
		return fmt.Errorf("INVITESWEEP_BRIDGE_COMMAND is required when INVITESWEEP_AUTO_LAUNCH is set")
	}

	if c.BridgeLaunchWait <= 0 {
		return fmt.Errorf("INVITESWEEP_BRIDGE_LAUNCH_WAIT must be positive")
	}

	return nil
}

func (c *Config) GetDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUsername, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 15s, got %q", key, value)
	}
	return parsed, nil
}

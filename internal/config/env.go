package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Supported CHAIN values
const (
	ChainEthereum = "ethereum"
	ChainSolana   = "solana"
)

// Supported METADATA_BACKEND values
const (
	MetadataBackendFile  = "file"
	MetadataBackendMongo = "mongo"
)

// Config contains all configuration parameters for the application.
// Note: the device share passphrase is prompted at runtime and stored in memory - use GetDeviceSharePasswordBytes()
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Identity provider
	Verifier        string `envconfig:"VERIFIER" default:"w3a-firebase-demo"`
	FirebaseAPIKey  string `envconfig:"FIREBASE_API_KEY" required:"true"`
	FirebaseBaseURL string `envconfig:"FIREBASE_BASE_URL" default:"https://identitytoolkit.googleapis.com/v1"`

	// Threshold key client
	PostboxNodeSecret string `envconfig:"POSTBOX_NODE_SECRET" required:"true"`
	MetadataBackend   string `envconfig:"METADATA_BACKEND" default:"file"`
	MetadataDir       string `envconfig:"METADATA_DIR" default:"./data/metadata"`
	MongoURI          string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase     string `envconfig:"MONGO_DATABASE" default:"tkey"`
	DeviceShareDir    string `envconfig:"DEVICE_SHARE_DIR" default:"./data/device"`

	// Chain client
	Chain        string `envconfig:"CHAIN" default:"ethereum"`
	EthRPCURL    string `envconfig:"ETH_RPC_URL" default:"https://rpc.ankr.com/eth_sepolia"`
	SolanaRPCURL string `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`

	// Wallet
	SignMessage    string `envconfig:"SIGN_MESSAGE" default:"YOUR_MESSAGE"`
	SignPassphrase string `envconfig:"SIGN_PASSPHRASE"`
	PriceCurrency  string `envconfig:"PRICE_CURRENCY" default:"usd"`
}

// Validate checks enumerated values that envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Chain {
	case ChainEthereum, ChainSolana:
	default:
		return fmt.Errorf("CHAIN must be %s or %s, got %q", ChainEthereum, ChainSolana, c.Chain)
	}
	switch c.MetadataBackend {
	case MetadataBackendFile, MetadataBackendMongo:
	default:
		return fmt.Errorf("METADATA_BACKEND must be %s or %s, got %q", MetadataBackendFile, MetadataBackendMongo, c.MetadataBackend)
	}
	return nil
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetVerifier returns the verifier name the identity is registered under
func GetVerifier() string {
	return Get().Verifier
}

// GetSignMessage returns the demo payload for message signing
func GetSignMessage() string {
	return Get().SignMessage
}

// GetSignPassphrase returns the passphrase forwarded to personal_sign
func GetSignPassphrase() string {
	return Get().SignPassphrase
}

// GetPriceCurrency returns the fiat currency for balance display ("" disables it)
func GetPriceCurrency() string {
	return Get().PriceCurrency
}

var passwordBytes []byte

// PromptForPassword prompts the user for the device share passphrase in the terminal.
// The passphrase is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter device share passphrase: ")
	if err != nil {
		return err
	}
	passwordBytes = raw
	return nil
}

// ReadPassword reads one hidden line from the terminal.
// Caller must zero the returned slice after use.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter passphrase")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}

// GetDeviceSharePasswordBytes returns the passphrase stored in memory (from PromptForPassword).
// Returns an error if the passphrase was not set.
// Caller must zero the returned slice after use for security.
func GetDeviceSharePasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("passphrase not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

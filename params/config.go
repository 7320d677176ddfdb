package params

import (
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// API holds HTTP/WS server settings.
type API struct {
	ListenAddr string
	// AllowedOrigins configures the CORS policy for the submission and
	// query endpoints.
	AllowedOrigins []string
}

// Storage holds on-disk paths for the service's Pebble-backed stores.
type Storage struct {
	DataDir          string
	BufferDBSubdir   string
	AuditDBSubdir    string
}

// Settlement holds the settlement core's tunables: the native reference
// token surplus is measured in, the gas price used for every proposal's
// gas reimbursement, the per-order gas overhead constant, and the proposal
// queue's capacity.
type Settlement struct {
	NativeToken       common.Address
	DefaultGasPriceWei float64
	GasPerOrder       uint64
	ProposalQueueCap  int
}

type Config struct {
	API        API
	Storage    Storage
	Settlement Settlement
	LogFile    string
	LogLevel   string
}

func Default() Config {
	return Config{
		API: API{
			ListenAddr:     ":8080",
			AllowedOrigins: []string{"*"},
		},
		Storage: Storage{
			DataDir:        "./data",
			BufferDBSubdir: "buffers",
			AuditDBSubdir:  "audit",
		},
		Settlement: Settlement{
			NativeToken:        common.Address{},
			DefaultGasPriceWei: 0,
			GasPerOrder:        66315,
			ProposalQueueCap:   256,
		},
		LogFile:  "",
		LogLevel: "info",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if addr := os.Getenv("API_LISTEN_ADDR"); addr != "" {
		cfg.API.ListenAddr = addr
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if native := os.Getenv("NATIVE_TOKEN"); native != "" {
		cfg.Settlement.NativeToken = common.HexToAddress(native)
	}
	if gasPrice := os.Getenv("DEFAULT_GAS_PRICE_WEI"); gasPrice != "" {
		if v, err := strconv.ParseFloat(gasPrice, 64); err == nil {
			cfg.Settlement.DefaultGasPriceWei = v
		}
	}
	if gasPerOrder := os.Getenv("GAS_PER_ORDER"); gasPerOrder != "" {
		if v, err := strconv.ParseUint(gasPerOrder, 10, 64); err == nil {
			cfg.Settlement.GasPerOrder = v
		}
	}
	if cap := os.Getenv("PROPOSAL_QUEUE_CAPACITY"); cap != "" {
		if v, err := strconv.Atoi(cap); err == nil {
			cfg.Settlement.ProposalQueueCap = v
		}
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg
}

// getEnv returns an environment variable's value, or a default if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

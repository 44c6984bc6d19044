package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Node struct {
	URL     string
	ChainID byte
	Timeout time.Duration
	Retries int
}

type API struct {
	Addr        string
	CORSOrigins []string
}

// Harness paces evaluate calls so a public node does not throttle the run.
type Harness struct {
	MaxConcurrent int
	MinInterval   time.Duration
}

// Contract is one deploy target: a dApp account and the script it should run.
// PublicKey is the account key a SetScript transaction is issued from.
type Contract struct {
	Name      string
	Script    string
	Address   string
	PublicKey string
}

type Config struct {
	Node           Node
	API            API
	Harness        Harness
	FactoryAddress string
	DataDir        string
	LogFile        string
	Contracts      []Contract
}

// DefaultCORSOrigins are the local UI dev servers.
var DefaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:3001"}

// ContractNames are the dApps of the exchange, in deploy order.
var ContractNames = []string{
	"validator",
	"factory",
	"spot",
	"treasury",
	"pool",
	"leverage",
	"prediction",
	"prediction-validator",
}

func Default() Config {
	contracts := make([]Contract, 0, len(ContractNames))
	for _, name := range ContractNames {
		contracts = append(contracts, Contract{Name: name, Script: DefaultScriptPath(name)})
	}
	return Config{
		Node: Node{
			URL:     "https://nodes-testnet.wavesnodes.com",
			ChainID: 'T',
			Timeout: 15 * time.Second,
			Retries: 2,
		},
		API: API{
			Addr:        ":8080",
			CORSOrigins: append([]string(nil), DefaultCORSOrigins...),
		},
		Harness: Harness{
			MaxConcurrent: 2,
			MinInterval:   500 * time.Millisecond,
		},
		DataDir:   "data",
		Contracts: contracts,
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg.Node.URL = strings.TrimRight(getEnv("NODE_URL", cfg.Node.URL), "/")
	if chain := os.Getenv("CHAIN_ID"); len(chain) == 1 {
		cfg.Node.ChainID = chain[0]
	}
	if ms := getEnvInt("HTTP_TIMEOUT_MS"); ms > 0 {
		cfg.Node.Timeout = time.Duration(ms) * time.Millisecond
	}
	if n := getEnvInt("HTTP_RETRIES"); n >= 0 {
		cfg.Node.Retries = n
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.API.CORSOrigins = splitList(origins)
	}

	if n := getEnvInt("HARNESS_MAX_CONCURRENT"); n > 0 {
		cfg.Harness.MaxConcurrent = n
	}
	if ms := getEnvInt("HARNESS_MIN_INTERVAL_MS"); ms >= 0 {
		cfg.Harness.MinInterval = time.Duration(ms) * time.Millisecond
	}

	cfg.FactoryAddress = getEnv("FACTORY_ADDRESS", cfg.FactoryAddress)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	for i := range cfg.Contracts {
		key := EnvKey(cfg.Contracts[i].Name)
		cfg.Contracts[i].Address = getEnv(key+"_ADDRESS", cfg.Contracts[i].Address)
		cfg.Contracts[i].Script = getEnv(key+"_SCRIPT", cfg.Contracts[i].Script)
		cfg.Contracts[i].PublicKey = getEnv(key+"_PUBLIC_KEY", cfg.Contracts[i].PublicKey)
	}

	return cfg
}

// Contract returns the deploy target with the given name.
func (c Config) Contract(name string) (Contract, bool) {
	for _, ct := range c.Contracts {
		if ct.Name == name {
			return ct, true
		}
	}
	return Contract{}, false
}

// DefaultScriptPath is where the script source of a contract lives in the repo.
func DefaultScriptPath(name string) string {
	if name == "prediction-validator" {
		return "ride/prediction-validator.ride"
	}
	return "ride/matcher-" + name + ".ride"
}

// EnvKey maps a contract name to its env prefix: "prediction-validator" -> "PREDICTION_VALIDATOR".
func EnvKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns -1 when the variable is unset or not an integer.
func getEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

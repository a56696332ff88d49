package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/xfactory/internal/domain"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

// ProjectFile is the project configuration file name
const ProjectFile = "xfactory.toml"

var (
	// DefaultDeployer is the account whose nonce 0 creation is the factory
	DefaultDeployer = common.HexToAddress("0xeD456e05CaAb11d66C4c797dD6c1D6f9A7F352b5")
	// DefaultInitCode installs a contract whose runtime is a single STOP
	DefaultInitCode = common.FromHex("0x600060005360016000f3")
)

// projectFileRaw is the raw xfactory.toml structure
type projectFileRaw struct {
	Factory    factoryRaw            `toml:"factory"`
	Networks   map[string]networkRaw `toml:"networks"`
	Presign    presignRaw            `toml:"presign"`
	Simulation simulationRaw         `toml:"simulation"`
}

type factoryRaw struct {
	Address  string `toml:"address"`
	Deployer string `toml:"deployer"`
	// InitCode is 0x-prefixed hex or a path to a file holding it
	InitCode string `toml:"init_code"`
}

type networkRaw struct {
	ChainID     uint64 `toml:"chain_id"`
	RPCURL      string `toml:"rpc_url"`
	ExplorerURL string `toml:"explorer_url"`
}

type presignRaw struct {
	GasLimit     uint64 `toml:"gas_limit"`
	GasPriceGwei uint64 `toml:"gas_price_gwei"`
	PrivateKey   string `toml:"private_key"` //nolint:gosec // env var reference
	OutputDir    string `toml:"output_dir"`
}

type simulationRaw struct {
	Chains []uint64 `toml:"chains"`
}

// loadEnvFiles loads .env files for variable expansion. Variables already
// set in the environment win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadProjectFile parses xfactory.toml. Returns (nil, nil) if it doesn't exist.
func loadProjectFile(projectRoot string) (*projectFileRaw, error) {
	path := filepath.Join(projectRoot, ProjectFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var raw projectFileRaw
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", ProjectFile, strings.Join(keys, ", "))
	}
	return &raw, nil
}

// resolveFactory applies defaults and checks the factory address is the
// deployer's nonce 0 creation
func resolveFactory(projectRoot string, raw factoryRaw) (config.FactoryConfig, error) {
	factory := config.FactoryConfig{
		Deployer: DefaultDeployer,
		InitCode: DefaultInitCode,
	}

	if deployer := os.ExpandEnv(raw.Deployer); deployer != "" {
		if !common.IsHexAddress(deployer) {
			return factory, fmt.Errorf("factory.deployer %q: %w", deployer, domain.ErrInvalidAddress)
		}
		factory.Deployer = common.HexToAddress(deployer)
	}

	if initCode := os.ExpandEnv(raw.InitCode); initCode != "" {
		code, err := readInitCode(projectRoot, initCode)
		if err != nil {
			return factory, err
		}
		factory.InitCode = code
	}

	derived := domain.DeriveNonceBased(factory.Deployer, 0)
	factory.Address = derived
	if address := os.ExpandEnv(raw.Address); address != "" {
		if !common.IsHexAddress(address) {
			return factory, fmt.Errorf("factory.address %q: %w", address, domain.ErrInvalidAddress)
		}
		if common.HexToAddress(address) != derived {
			return factory, fmt.Errorf("factory.address %s is not the first creation of deployer %s (expected %s)",
				address, factory.Deployer.Hex(), derived.Hex())
		}
	}
	return factory, nil
}

// readInitCode accepts inline hex or a path, relative to the project root,
// to a file holding hex
func readInitCode(projectRoot, value string) ([]byte, error) {
	if !strings.HasPrefix(value, "0x") {
		path := value
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
		data, err := os.ReadFile(path) //nolint:gosec // configured path
		if err != nil {
			return nil, fmt.Errorf("failed to read factory init code: %w", err)
		}
		value = strings.TrimSpace(string(data))
	}

	code, err := hexutil.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("factory.init_code: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("factory.init_code is empty")
	}
	return code, nil
}

// resolveNetworks expands env references. Networks whose RPC variable is
// unset keep an empty RPCURL.
func resolveNetworks(raw map[string]networkRaw) (map[string]*config.Network, []string, error) {
	networks := make(map[string]*config.Network, len(raw))
	var missing []string
	for name, n := range raw {
		if n.ChainID == 0 {
			return nil, nil, fmt.Errorf("networks.%s: %w", name, domain.ErrInvalidChainID)
		}
		rpcURL, unset := resolveRPCURL(name, n.RPCURL)
		if unset != "" {
			missing = append(missing, unset)
		}
		networks[name] = &config.Network{
			Name:        name,
			ChainID:     n.ChainID,
			RPCURL:      rpcURL,
			ExplorerURL: strings.TrimRight(os.ExpandEnv(n.ExplorerURL), "/"),
		}
	}
	return networks, missing, nil
}

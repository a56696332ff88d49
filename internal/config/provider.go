package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/xfactory/internal/domain/config"
)

// DataDirName is the per-project state directory
const DataDirName = ".xfactory"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        v.GetString("data_dir"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(projectRoot, DataDirName)
	} else if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(projectRoot, cfg.DataDir)
	}

	// Load .env files before expanding ${VAR} references
	loadEnvFiles(projectRoot)

	raw, err := loadProjectFile(projectRoot)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		raw = &projectFileRaw{}
	} else {
		cfg.ConfigSource = filepath.Join(projectRoot, ProjectFile)
	}

	cfg.Factory, err = resolveFactory(projectRoot, raw.Factory)
	if err != nil {
		return nil, err
	}

	networks, missing, err := resolveNetworks(raw.Networks)
	if err != nil {
		return nil, err
	}
	cfg.Networks = networks
	if len(missing) > 0 && cfg.Debug {
		sort.Strings(missing)
		fmt.Fprintf(os.Stderr, "Warning: unset RPC variables: %s\n", strings.Join(missing, ", "))
	}

	cfg.Presign = config.PresignConfig{
		GasLimit:     raw.Presign.GasLimit,
		GasPriceGwei: raw.Presign.GasPriceGwei,
		PrivateKey:   os.ExpandEnv(raw.Presign.PrivateKey),
		OutputDir:    raw.Presign.OutputDir,
	}
	if cfg.Presign.PrivateKey == "" {
		cfg.Presign.PrivateKey = v.GetString("private_key")
	}
	if cfg.Presign.OutputDir == "" {
		cfg.Presign.OutputDir = filepath.Join(cfg.DataDir, "presign")
	} else if !filepath.IsAbs(cfg.Presign.OutputDir) {
		cfg.Presign.OutputDir = filepath.Join(projectRoot, cfg.Presign.OutputDir)
	}

	cfg.SimulationChains = raw.Simulation.Chains

	if networkName := v.GetString("network"); networkName != "" {
		network, err := ResolveNetwork(cfg.Networks, networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from the current directory to find xfactory.toml.
// Without one, the current directory is the project root.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up config file
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	// Set up environment variables
	v.SetEnvPrefix("XFACTORY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("json", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	if cmd != nil {
		bindFlags(v, cmd.Flags())
		bindFlags(v, cmd.InheritedFlags())
	}

	return v
}

// bindFlags binds flags under their snake_case key
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})
}

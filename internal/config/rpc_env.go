package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR_NAME} patterns in TOML values
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar checks if a raw TOML value is a simple ${VAR_NAME} reference.
// Returns the variable name and true if the value is a pure env var reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(rawValue)
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// GenerateEnvVarName generates a conventional env var name for a network's RPC URL.
// Convention: uppercase, dashes/dots to underscores, append _RPC_URL.
// Examples: sepolia -> SEPOLIA_RPC_URL, base-sepolia -> BASE_SEPOLIA_RPC_URL
func GenerateEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}

// resolveRPCURL expands a network's rpc_url. An absent value falls back to
// the conventional env var for the network. The second result names the
// variable that was referenced but unset, if any.
func resolveRPCURL(networkName, rawValue string) (string, string) {
	if rawValue == "" {
		envVar := GenerateEnvVarName(networkName)
		return os.Getenv(envVar), ""
	}
	if envVar, ok := DetectEnvVar(rawValue); ok {
		value, set := os.LookupEnv(envVar)
		if !set || value == "" {
			return "", envVar
		}
		return value, ""
	}
	return os.ExpandEnv(rawValue), ""
}

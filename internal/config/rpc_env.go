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
// Examples: sepolia -> SEPOLIA_RPC_URL, celo-sepolia -> CELO_SEPOLIA_RPC_URL
func GenerateEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}

// resolveRPCURL expands a configured RPC URL. An empty value falls back to
// the conventional <NETWORK>_RPC_URL variable.
func resolveRPCURL(networkName, raw string) string {
	if raw == "" {
		return os.Getenv(GenerateEnvVarName(networkName))
	}
	return os.ExpandEnv(raw)
}

// HardcodedSecrets lists the secret fields of the file that hold literal
// values instead of ${VAR} references
func HardcodedSecrets(file *GenesisFile) []string {
	var fields []string
	check := func(field, raw string) {
		if raw == "" {
			return
		}
		if _, ok := DetectEnvVar(raw); !ok {
			fields = append(fields, field)
		}
	}
	check("signer.private_key", file.Signer.PrivateKey)
	check("cold_storage.authorization", file.ColdStorage.Authorization)
	return fields
}

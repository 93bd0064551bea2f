package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for domain operations
var (
	// ErrAlreadyDeployed is returned when a deployment is requested for an address that already holds code
	ErrAlreadyDeployed = errors.New("already deployed")

	// ErrArtifactNotFound is returned when no artifact matches a contract name
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrDependencyCycle is returned when plan steps depend on each other circularly
	ErrDependencyCycle = errors.New("circular dependency")

	// ErrInvalidSalt is returned when a salt cannot be parsed into 32 bytes
	ErrInvalidSalt = errors.New("invalid salt")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrCancelled is returned when the operator declines to broadcast
	ErrCancelled = errors.New("deployment cancelled")

	// ErrChainIDMismatch is returned when the RPC endpoint serves a different chain than configured
	ErrChainIDMismatch = errors.New("chain ID mismatch")
)

// ConfigurationError is fatal and raised before any transaction is sent.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError builds a ConfigurationError from a formatted message
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}

// EncodingError means an init-code could not be built; no transaction is sent for the contract.
type EncodingError struct {
	Contract string
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Contract == "" {
		return fmt.Sprintf("encoding error: %v", e.Err)
	}
	return fmt.Sprintf("failed to encode init code for %s: %v", e.Contract, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// ProbeError wraps a failed ledger read.
type ProbeError struct {
	Network string
	Address common.Address
	Err     error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("failed to read code at %s on %s: %v", e.Address.Hex(), e.Network, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// DeploymentRevertError halts the dependency chain from the failing contract forward.
type DeploymentRevertError struct {
	Contract string
	TxHash   common.Hash
	Reason   string
	Err      error
}

func (e *DeploymentRevertError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "deployment of %s failed", e.Contract)
	if e.TxHash != (common.Hash{}) {
		fmt.Fprintf(&b, " (tx %s)", e.TxHash.Hex())
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DeploymentRevertError) Unwrap() error { return e.Err }

// AmbiguousArtifactErr is returned when more than one artifact carries the requested name
type AmbiguousArtifactErr struct {
	Name  string
	Paths []string
}

func (e AmbiguousArtifactErr) Error() string {
	paths := make([]string, len(e.Paths))
	copy(paths, e.Paths)
	sort.Strings(paths)

	var suggestions []string
	for _, p := range paths {
		suggestions = append(suggestions, fmt.Sprintf("  - %s", p))
	}

	return fmt.Sprintf("multiple artifacts found for %s - use the artifact path to disambiguate:\n%s",
		e.Name, strings.Join(suggestions, "\n"))
}

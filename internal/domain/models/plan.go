package models

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-genesis/internal/domain/initcode"
)

// StepStatus is the state of one contract inside a network run
type StepStatus string

const (
	StatusPending         StepStatus = "PENDING"
	StatusAddressDerived  StepStatus = "ADDRESS_DERIVED"
	StatusAlreadyDeployed StepStatus = "ALREADY_DEPLOYED"
	StatusDeploying       StepStatus = "DEPLOYING"
	StatusDeployed        StepStatus = "DEPLOYED"
	StatusFailed          StepStatus = "FAILED"
)

// IsTerminal reports whether no further transition can happen
func (s StepStatus) IsTerminal() bool {
	return s == StatusAlreadyDeployed || s == StatusDeployed || s == StatusFailed
}

// IsSettled reports whether code is known to be present at the step's address
func (s StepStatus) IsSettled() bool {
	return s == StatusAlreadyDeployed || s == StatusDeployed
}

// Label is the human form used in logs and tables
func (s StepStatus) Label() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAddressDerived:
		return "address derived"
	case StatusAlreadyDeployed:
		return "already deployed"
	case StatusDeploying:
		return "deploying"
	case StatusDeployed:
		return "deployed"
	case StatusFailed:
		return "failed"
	default:
		return string(s)
	}
}

// BuildEnv is what an init-code builder may reference: the deploying account
// and the derived addresses of the steps that ran before it.
type BuildEnv struct {
	Deployer  common.Address
	Addresses map[string]common.Address
}

// AddressOf returns the derived address of an earlier step
func (e BuildEnv) AddressOf(step string) (common.Address, error) {
	addr, ok := e.Addresses[step]
	if !ok {
		return common.Address{}, fmt.Errorf("address of %s is not derived yet", step)
	}
	return addr, nil
}

// InitCodeBuilder produces a step's init-code arguments
type InitCodeBuilder func(env BuildEnv) (initcode.Args, error)

// PlanStep is one contract of a deployment plan
type PlanStep struct {
	Name      string
	Artifact  string // defaults to Name
	DependsOn []string
	Build     InitCodeBuilder
}

// ArtifactName returns the artifact to load for the step
func (s *PlanStep) ArtifactName() string {
	if s.Artifact != "" {
		return s.Artifact
	}
	return s.Name
}

// Plan is an ordered set of steps. Declaration order breaks ties between
// steps whose dependencies are equally satisfied.
type Plan struct {
	Name        string
	Description string
	Steps       []*PlanStep
}

// StepResult is the outcome of one step on one network
type StepResult struct {
	Step        string         `json:"step"`
	Artifact    string         `json:"artifact"`
	Address     common.Address `json:"address"`
	Status      StepStatus     `json:"status"`
	TxHash      common.Hash    `json:"txHash,omitempty"`
	BlockNumber uint64         `json:"blockNumber,omitempty"`
	GasUsed     uint64         `json:"gasUsed,omitempty"`
	Err         error          `json:"-"`
}

package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-genesis/internal/domain"
)

// ExistenceProber answers whether code is stored at an address. Ledger state
// is the only record of what is deployed.
//
// A probe followed by a deployment is not atomic: another account can deploy
// to the same address in between. The factory then reverts and the step fails
// with a DeploymentRevertError; re-running the plan observes the code and
// skips the step. Campaigns for one salt are expected to have one operator.
type ExistenceProber struct{}

// NewExistenceProber creates a new ExistenceProber
func NewExistenceProber() *ExistenceProber {
	return &ExistenceProber{}
}

// CodeExists reads code at addr on the latest block. Empty code means not deployed.
func (p *ExistenceProber) CodeExists(ctx context.Context, session *Session, addr common.Address) (bool, error) {
	code, err := session.Ledger.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, &domain.ProbeError{Network: session.Network.Name, Address: addr, Err: err}
	}
	return len(code) > 0, nil
}

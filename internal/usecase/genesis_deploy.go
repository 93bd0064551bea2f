package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

const (
	defaultPollInterval   = 2 * time.Second
	defaultConfirmTimeout = 5 * time.Minute
	gasLimitMarginPercent = 120
)

// DeployRequest describes one deterministic deployment
type DeployRequest struct {
	Salt     domain.Salt
	Artifact *models.Artifact
	InitCode []byte
	Expected common.Address
}

// GenesisDeployer submits a deployment through the deterministic factory and
// waits for it to be confirmed
type GenesisDeployer struct {
	factory        DeploymentFactory
	prober         *ExistenceProber
	log            *slog.Logger
	pollInterval   time.Duration
	confirmTimeout time.Duration
}

// NewGenesisDeployer creates a new GenesisDeployer
func NewGenesisDeployer(
	cfg *config.RuntimeConfig,
	factory DeploymentFactory,
	prober *ExistenceProber,
	log *slog.Logger,
) *GenesisDeployer {
	d := &GenesisDeployer{
		factory:        factory,
		prober:         prober,
		log:            log.With("component", "GenesisDeployer"),
		pollInterval:   cfg.PollInterval,
		confirmTimeout: cfg.Timeout,
	}
	if d.pollInterval <= 0 {
		d.pollInterval = defaultPollInterval
	}
	if d.confirmTimeout <= 0 {
		d.confirmTimeout = defaultConfirmTimeout
	}
	return d
}

// Deploy sends exactly one factory transaction and returns its receipt once
// code is observed at the expected address.
//
// It fails with ErrAlreadyDeployed when code is already present; skipping
// deployed contracts is the caller's decision. Cancellation of ctx is honored
// until the transaction is submitted. After that the receipt is awaited
// regardless, bounded by the confirmation timeout.
func (d *GenesisDeployer) Deploy(ctx context.Context, session *Session, req DeployRequest) (*types.Receipt, error) {
	name := req.Artifact.Name

	exists, err := d.prober.CodeExists(ctx, session, req.Expected)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s at %s on %s: %w", name, req.Expected.Hex(), session.Network.Name, domain.ErrAlreadyDeployed)
	}

	calldata, err := d.factory.Calldata(req.Salt, req.Artifact.Bytecode, req.InitCode)
	if err != nil {
		return nil, &domain.EncodingError{Contract: name, Err: err}
	}

	tx, err := d.buildTx(ctx, session, name, calldata)
	if err != nil {
		return nil, err
	}

	signed, err := session.Signer.SignTx(ctx, session.ChainID, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign deployment of %s: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := session.Ledger.SendTransaction(ctx, signed); err != nil {
		return nil, &domain.DeploymentRevertError{Contract: name, TxHash: signed.Hash(), Reason: "submission rejected", Err: err}
	}

	d.log.Debug("deployment submitted",
		"network", session.Network.Name,
		"contract", name,
		"tx", signed.Hash().Hex(),
		"nonce", signed.Nonce())

	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.confirmTimeout)
	defer cancel()

	receipt, err := d.waitForReceipt(waitCtx, session, signed.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to confirm deployment of %s (tx %s): %w", name, signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &domain.DeploymentRevertError{Contract: name, TxHash: signed.Hash(), Reason: "transaction reverted"}
	}

	exists, err = d.prober.CodeExists(waitCtx, session, req.Expected)
	if err != nil {
		return receipt, err
	}
	if !exists {
		return receipt, &domain.DeploymentRevertError{
			Contract: name,
			TxHash:   signed.Hash(),
			Reason:   fmt.Sprintf("no code at expected address %s; the factory deployed elsewhere", req.Expected.Hex()),
		}
	}

	return receipt, nil
}

func (d *GenesisDeployer) buildTx(ctx context.Context, session *Session, name string, calldata []byte) (*types.Transaction, error) {
	from := session.Signer.Address()
	to := d.factory.Address()

	nonce, err := session.Ledger.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce for %s: %w", from.Hex(), err)
	}

	head, err := session.Ledger.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}

	gas, err := session.Ledger.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: calldata})
	if err != nil {
		return nil, &domain.DeploymentRevertError{Contract: name, Reason: "gas estimation failed", Err: err}
	}
	gas = gas * gasLimitMarginPercent / 100

	if head.BaseFee == nil {
		gasPrice, err := session.Ledger.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &to,
			Gas:      gas,
			GasPrice: gasPrice,
			Data:     calldata,
		}), nil
	}

	tip, err := session.Ledger.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   session.ChainID,
		Nonce:     nonce,
		To:        &to,
		Gas:       gas,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Data:      calldata,
	}), nil
}

func (d *GenesisDeployer) waitForReceipt(ctx context.Context, session *Session, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := session.Ledger.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

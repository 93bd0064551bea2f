package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// FactoryCode is the runtime code installed at the factory address
var FactoryCode = []byte{0x60, 0x80, 0x60, 0x40, 0x52, 0xfa, 0xc7}

// CalldataParser recovers salt and creation code from factory calldata
type CalldataParser interface {
	Address() common.Address
	Parse(calldata []byte) (domain.Salt, []byte, error)
}

// FakeLedger is an in-memory chain that executes factory deployments with CREATE2
type FakeLedger struct {
	mu       sync.Mutex
	chainID  *big.Int
	factory  CalldataParser
	code     map[common.Address][]byte
	nonces   map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
	polls    map[common.Hash]int
	block    uint64
	sent     []*types.Transaction
	closed   int

	// Legacy makes the latest header carry no base fee
	Legacy bool
	// ReceiptDelay is the number of receipt polls answered with NotFound
	ReceiptDelay int
	// Revert makes a deployment of the creation code fail on-chain
	Revert func(creationCode []byte) bool
	// EstimateErr makes gas estimation fail for the creation code
	EstimateErr func(creationCode []byte) error
	// CodeAtErr fails every code read
	CodeAtErr error
	// Misroute makes the factory place code at a different address
	Misroute bool
	// BeforeSend runs before a transaction is accepted
	BeforeSend func(tx *types.Transaction)
}

// NewFakeLedger creates a chain with the factory deployed
func NewFakeLedger(chainID uint64, factory CalldataParser) *FakeLedger {
	l := &FakeLedger{
		chainID:  new(big.Int).SetUint64(chainID),
		factory:  factory,
		code:     make(map[common.Address][]byte),
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
		polls:    make(map[common.Hash]int),
		block:    1,
	}
	l.code[factory.Address()] = FactoryCode
	return l
}

// SetCode installs code at addr; nil removes it
func (l *FakeLedger) SetCode(addr common.Address, code []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if code == nil {
		delete(l.code, addr)
		return
	}
	l.code[addr] = code
}

// HasCode reports whether code exists at addr
func (l *FakeLedger) HasCode(addr common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.code[addr]) > 0
}

// Sent returns the accepted transactions
func (l *FakeLedger) Sent() []*types.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*types.Transaction{}, l.sent...)
}

// Closed returns how often Close was called
func (l *FakeLedger) Closed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *FakeLedger) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(l.chainID), nil
}

func (l *FakeLedger) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.CodeAtErr != nil {
		return nil, l.CodeAtErr
	}
	return append([]byte{}, l.code[account]...), nil
}

func (l *FakeLedger) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nonces[account], nil
}

func (l *FakeLedger) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := &types.Header{Number: new(big.Int).SetUint64(l.block)}
	if !l.Legacy {
		h.BaseFee = big.NewInt(1_000_000_000)
	}
	return h, nil
}

func (l *FakeLedger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (l *FakeLedger) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (l *FakeLedger) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if call.To != nil && *call.To == l.factory.Address() && l.EstimateErr != nil {
		_, creation, err := l.factory.Parse(call.Data)
		if err != nil {
			return 0, err
		}
		if err := l.EstimateErr(creation); err != nil {
			return 0, err
		}
	}
	return 100_000 + uint64(len(call.Data))*16, nil
}

func (l *FakeLedger) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if l.BeforeSend != nil {
		l.BeforeSend(tx)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, err := types.Sender(types.LatestSignerForChainID(l.chainID), tx)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	if tx.Nonce() != l.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), l.nonces[from])
	}
	l.nonces[from]++
	l.sent = append(l.sent, tx)
	l.block++

	receipt := &types.Receipt{
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(l.block),
		GasUsed:     tx.Gas() / 2,
		Status:      types.ReceiptStatusSuccessful,
	}
	l.receipts[tx.Hash()] = receipt

	if tx.To() == nil || *tx.To() != l.factory.Address() {
		return nil
	}

	salt, creation, err := l.factory.Parse(tx.Data())
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
		return nil
	}
	addr := crypto.CreateAddress2(l.factory.Address(), salt.Bytes32(), crypto.Keccak256(creation))
	if l.Misroute {
		addr = crypto.CreateAddress(l.factory.Address(), l.block)
	}
	if len(l.code[addr]) > 0 || (l.Revert != nil && l.Revert(creation)) {
		receipt.Status = types.ReceiptStatusFailed
		return nil
	}
	l.code[addr] = append([]byte{0xfe}, creation...)
	receipt.ContractAddress = addr
	return nil
}

func (l *FakeLedger) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	receipt, ok := l.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if l.polls[txHash] < l.ReceiptDelay {
		l.polls[txHash]++
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (l *FakeLedger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed++
}

// FakeDialer hands out FakeLedgers by network name
type FakeDialer struct {
	Ledgers map[string]*FakeLedger
	Errs    map[string]error
}

// Dial returns the ledger registered for the network
func (d *FakeDialer) Dial(ctx context.Context, network *config.Network) (usecase.Ledger, error) {
	if err := d.Errs[network.Name]; err != nil {
		return nil, err
	}
	l, ok := d.Ledgers[network.Name]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return l, nil
}

var _ usecase.Ledger = (*FakeLedger)(nil)
var _ usecase.LedgerDialer = (*FakeDialer)(nil)

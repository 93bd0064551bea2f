package coldstorage

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrUnknownAccount is returned when the service does not manage the configured account
	ErrUnknownAccount = errors.New("account not managed by signing service")
	// ErrSignerMismatch is returned when a returned transaction was not signed by the configured account
	ErrSignerMismatch = errors.New("transaction signed by unexpected account")
	// ErrTxMismatch is returned when the service returns a transaction other than the one requested
	ErrTxMismatch = errors.New("signed transaction differs from request")
)

const defaultTimeout = 30 * time.Second

// Config holds connection parameters of a remote signing service
type Config struct {
	Endpoint      string
	Address       common.Address
	Authorization string
	CA            string // PEM content or path to a PEM file; empty uses the system pool
	Timeout       time.Duration
}

// Client signs transactions through a JSON-RPC signing service that holds the key
type Client struct {
	rpc     *rpc.Client
	address common.Address
}

// NewClient dials the signing service over HTTPS
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	tlsConfig, err := newTLSConfig(cfg.CA)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	}

	opts := []rpc.ClientOption{rpc.WithHTTPClient(httpClient)}
	if cfg.Authorization != "" {
		opts = append(opts, rpc.WithHeader("Authorization", cfg.Authorization))
	}

	client, err := rpc.DialOptions(ctx, cfg.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial signing service %s: %w", cfg.Endpoint, err)
	}

	return &Client{rpc: client, address: cfg.Address}, nil
}

// Address returns the account the client signs for
func (c *Client) Address() common.Address {
	return c.address
}

// Accounts lists the accounts managed by the service
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts failed: %w", err)
	}
	return accounts, nil
}

// Ping checks the service is reachable and manages the configured account
func (c *Client) Ping(ctx context.Context) error {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a == c.address {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", c.address.Hex(), ErrUnknownAccount)
}

// SignTransaction asks the service to sign tx for chainID and checks that the
// result is the same transaction signed by the configured account
func (c *Client) SignTransaction(ctx context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	var raw json.RawMessage
	if err := c.rpc.CallContext(ctx, &raw, "eth_signTransaction", newTransactionArgs(c.address, chainID, tx)); err != nil {
		return nil, fmt.Errorf("eth_signTransaction failed: %w", err)
	}

	encoded, err := decodeSignResult(raw)
	if err != nil {
		return nil, err
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(encoded); err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	if err := sameTransaction(chainID, tx, signed); err != nil {
		return nil, err
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		return nil, fmt.Errorf("failed to recover signer: %w", err)
	}
	if sender != c.address {
		return nil, fmt.Errorf("%w: got %s, expected %s", ErrSignerMismatch, sender.Hex(), c.address.Hex())
	}

	return signed, nil
}

// Close releases the underlying connection
func (c *Client) Close() {
	c.rpc.Close()
}

// TransactionArgs is the eth_signTransaction request object
type TransactionArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func newTransactionArgs(from common.Address, chainID *big.Int, tx *types.Transaction) TransactionArgs {
	args := TransactionArgs{
		From:    from,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Data:    tx.Data(),
		ChainID: (*hexutil.Big)(chainID),
	}
	if tx.Type() == types.LegacyTxType {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	} else {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	}
	return args
}

// decodeSignResult accepts both a bare raw transaction and the {raw, tx}
// object returned by geth-style signers
func decodeSignResult(raw json.RawMessage) ([]byte, error) {
	var encoded hexutil.Bytes
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return encoded, nil
	}
	var result struct {
		Raw hexutil.Bytes `json:"raw"`
	}
	if err := json.Unmarshal(raw, &result); err != nil || len(result.Raw) == 0 {
		return nil, fmt.Errorf("unexpected eth_signTransaction result: %s", string(raw))
	}
	return result.Raw, nil
}

func sameTransaction(chainID *big.Int, want, got *types.Transaction) error {
	switch {
	case want.Type() != got.Type():
		return fmt.Errorf("%w: type %d, expected %d", ErrTxMismatch, got.Type(), want.Type())
	case !sameBig(chainID, got.ChainId()):
		return fmt.Errorf("%w: chain ID %v, expected %v", ErrTxMismatch, got.ChainId(), chainID)
	case want.Nonce() != got.Nonce():
		return fmt.Errorf("%w: nonce %d, expected %d", ErrTxMismatch, got.Nonce(), want.Nonce())
	case want.Gas() != got.Gas():
		return fmt.Errorf("%w: gas %d, expected %d", ErrTxMismatch, got.Gas(), want.Gas())
	case !sameTo(want.To(), got.To()):
		return fmt.Errorf("%w: recipient", ErrTxMismatch)
	case want.Value().Cmp(got.Value()) != 0:
		return fmt.Errorf("%w: value", ErrTxMismatch)
	case !bytes.Equal(want.Data(), got.Data()):
		return fmt.Errorf("%w: calldata", ErrTxMismatch)
	case !sameBig(want.GasPrice(), got.GasPrice()):
		return fmt.Errorf("%w: gas price %v, expected %v", ErrTxMismatch, got.GasPrice(), want.GasPrice())
	case !sameBig(want.GasFeeCap(), got.GasFeeCap()):
		return fmt.Errorf("%w: fee cap %v, expected %v", ErrTxMismatch, got.GasFeeCap(), want.GasFeeCap())
	case !sameBig(want.GasTipCap(), got.GasTipCap()):
		return fmt.Errorf("%w: tip cap %v, expected %v", ErrTxMismatch, got.GasTipCap(), want.GasTipCap())
	}
	return nil
}

func sameBig(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}

func sameTo(a, b *common.Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func newTLSConfig(ca string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if ca == "" {
		return cfg, nil
	}

	pemData := []byte(ca)
	if !strings.Contains(ca, "-----BEGIN") {
		data, err := os.ReadFile(ca)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file %s: %w", ca, err)
		}
		pemData = data
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, errors.New("no certificates found in CA")
	}
	cfg.RootCAs = pool
	return cfg, nil
}

package coldstorage

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "Bearer cold-token"

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// signingService is a minimal eth_accounts/eth_signTransaction endpoint
type signingService struct {
	key        *ecdsa.PrivateKey
	wrapResult bool
	tamper     func(tx *types.DynamicFeeTx)
	// downgrade answers dynamic fee requests with a legacy transaction
	downgrade bool
	calls     map[string]int
}

func (s *signingService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != testToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.calls[req.Method]++

	var result any
	switch req.Method {
	case "eth_accounts":
		result = []common.Address{crypto.PubkeyToAddress(s.key.PublicKey)}
	case "eth_signTransaction":
		var args TransactionArgs
		if err := json.Unmarshal(req.Params[0], &args); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		chainID := args.ChainID.ToInt()
		var inner types.TxData
		if args.GasPrice != nil || s.downgrade {
			gasPrice := args.GasPrice
			if gasPrice == nil {
				gasPrice = args.MaxFeePerGas
			}
			inner = &types.LegacyTx{
				Nonce:    uint64(args.Nonce),
				To:       args.To,
				Gas:      uint64(args.Gas),
				GasPrice: gasPrice.ToInt(),
				Value:    args.Value.ToInt(),
				Data:     args.Data,
			}
		} else {
			dynamic := &types.DynamicFeeTx{
				ChainID:   chainID,
				Nonce:     uint64(args.Nonce),
				To:        args.To,
				Gas:       uint64(args.Gas),
				GasTipCap: args.MaxPriorityFeePerGas.ToInt(),
				GasFeeCap: args.MaxFeePerGas.ToInt(),
				Value:     args.Value.ToInt(),
				Data:      args.Data,
			}
			if s.tamper != nil {
				s.tamper(dynamic)
			}
			chainID = dynamic.ChainID
			inner = dynamic
		}
		signed, err := types.SignNewTx(s.key, types.LatestSignerForChainID(chainID), inner)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		raw, _ := signed.MarshalBinary()
		if s.wrapResult {
			result = map[string]any{"raw": hexutil.Bytes(raw), "tx": signed}
		} else {
			result = hexutil.Bytes(raw)
		}
	default:
		result = nil
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func newService(t *testing.T) (*signingService, *httptest.Server, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	svc := &signingService{key: key, calls: map[string]int{}}
	srv := httptest.NewTLSServer(svc)
	t.Cleanup(srv.Close)

	ca := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}))
	return svc, srv, ca
}

func dial(t *testing.T, srv *httptest.Server, ca string, addr common.Address) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), Config{
		Endpoint:      srv.URL,
		Address:       addr,
		Authorization: testToken,
		CA:            ca,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func unsignedLegacyTx() *types.Transaction {
	to := common.HexToAddress("0x4e59b44847b379578588920cA78FbF26c0B4956C")
	return types.NewTx(&types.LegacyTx{
		Nonce:    7,
		To:       &to,
		Gas:      120000,
		GasPrice: big.NewInt(2_000_000_000),
		Data:     []byte{0xde, 0xad, 0xbe, 0xef},
	})
}

func unsignedTx(chainID *big.Int) *types.Transaction {
	to := common.HexToAddress("0x4e59b44847b379578588920cA78FbF26c0B4956C")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     7,
		To:        &to,
		Gas:       120000,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(3_000_000_000),
		Data:      []byte{0xde, 0xad, 0xbe, 0xef},
	})
}

func TestPing(t *testing.T) {
	svc, srv, ca := newService(t)

	client := dial(t, srv, ca, crypto.PubkeyToAddress(svc.key.PublicKey))
	require.NoError(t, client.Ping(context.Background()))

	other := dial(t, srv, ca, common.HexToAddress("0x1111111111111111111111111111111111111111"))
	err := other.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestSignTransaction(t *testing.T) {
	tests := []struct {
		name      string
		wrap      bool
		legacy    bool
		downgrade bool
		tamper    func(tx *types.DynamicFeeTx)
		wantErr   error
	}{
		{name: "raw result"},
		{name: "wrapped result", wrap: true},
		{name: "legacy transaction", legacy: true},
		{
			name: "raised fee cap",
			tamper: func(tx *types.DynamicFeeTx) {
				tx.GasFeeCap = new(big.Int).Mul(tx.GasFeeCap, big.NewInt(1_000_000))
			},
			wantErr: ErrTxMismatch,
		},
		{
			name: "raised tip",
			tamper: func(tx *types.DynamicFeeTx) {
				tx.GasTipCap = new(big.Int).Mul(tx.GasTipCap, big.NewInt(1_000_000))
			},
			wantErr: ErrTxMismatch,
		},
		{
			name:    "other chain",
			tamper:  func(tx *types.DynamicFeeTx) { tx.ChainID = big.NewInt(1) },
			wantErr: ErrTxMismatch,
		},
		{
			name:      "legacy answer to a dynamic fee request",
			downgrade: true,
			wantErr:   ErrTxMismatch,
		},
		{
			name:    "substituted calldata",
			tamper:  func(tx *types.DynamicFeeTx) { tx.Data = []byte{0x00} },
			wantErr: ErrTxMismatch,
		},
		{
			name:    "substituted nonce",
			tamper:  func(tx *types.DynamicFeeTx) { tx.Nonce++ },
			wantErr: ErrTxMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, srv, ca := newService(t)
			svc.wrapResult = tt.wrap
			svc.tamper = tt.tamper
			svc.downgrade = tt.downgrade

			from := crypto.PubkeyToAddress(svc.key.PublicKey)
			client := dial(t, srv, ca, from)

			chainID := big.NewInt(11155111)
			tx := unsignedTx(chainID)
			if tt.legacy {
				tx = unsignedLegacyTx()
			}
			signed, err := client.SignTransaction(context.Background(), chainID, tx)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
			require.NoError(t, err)
			assert.Equal(t, from, sender)
			assert.Equal(t, tx.Data(), signed.Data())
			assert.Equal(t, tx.Nonce(), signed.Nonce())
			assert.Equal(t, tx.Type(), signed.Type())
			assert.Zero(t, tx.GasFeeCap().Cmp(signed.GasFeeCap()))
			assert.Zero(t, tx.GasTipCap().Cmp(signed.GasTipCap()))
			assert.Zero(t, chainID.Cmp(signed.ChainId()))
			assert.Equal(t, 1, svc.calls["eth_signTransaction"])
		})
	}
}

func TestSignTransactionWrongSigner(t *testing.T) {
	_, srv, ca := newService(t)

	client := dial(t, srv, ca, common.HexToAddress("0x2222222222222222222222222222222222222222"))
	chainID := big.NewInt(1)
	_, err := client.SignTransaction(context.Background(), chainID, unsignedTx(chainID))
	assert.ErrorIs(t, err, ErrSignerMismatch)
}

func TestAuthorizationRequired(t *testing.T) {
	svc, srv, ca := newService(t)

	client, err := NewClient(context.Background(), Config{
		Endpoint: srv.URL,
		Address:  crypto.PubkeyToAddress(svc.key.PublicKey),
		CA:       ca,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Error(t, client.Ping(context.Background()))
	assert.Zero(t, svc.calls["eth_accounts"])
}

func TestUntrustedCertificate(t *testing.T) {
	svc, srv, _ := newService(t)

	client, err := NewClient(context.Background(), Config{
		Endpoint:      srv.URL,
		Address:       crypto.PubkeyToAddress(svc.key.PublicKey),
		Authorization: testToken,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Error(t, client.Ping(context.Background()))
}

func TestCAFromFile(t *testing.T) {
	svc, srv, ca := newService(t)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte(ca), 0o600))

	client := dial(t, srv, path, crypto.PubkeyToAddress(svc.key.PublicKey))
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewTLSConfigErrors(t *testing.T) {
	_, err := newTLSConfig(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)

	_, err = newTLSConfig("-----BEGIN CERTIFICATE-----\nnot a cert\n-----END CERTIFICATE-----\n")
	assert.Error(t, err)
}

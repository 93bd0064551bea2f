package artifacts

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
)

const feeManagerABI = `[{"type":"constructor","inputs":[{"name":"feeBPS","type":"uint256"},{"name":"owner","type":"address"}]}]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupArtifacts(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	// Foundry layout
	writeFile(t, filepath.Join(root, "HolographFeeManager.sol", "HolographFeeManager.json"),
		`{"abi":`+feeManagerABI+`,"bytecode":{"object":"0x6080604052"}}`)
	// Hardhat layout
	writeFile(t, filepath.Join(root, "drop", "EditionMetadataRenderer.json"),
		`{"contractName":"EditionMetadataRenderer","abi":[],"bytecode":"0x60016002"}`)
	// Same name in two sources
	writeFile(t, filepath.Join(root, "A.sol", "Owned.json"), `{"abi":[],"bytecode":{"object":"0x01"}}`)
	writeFile(t, filepath.Join(root, "B.sol", "Owned.json"), `{"abi":[],"bytecode":{"object":"0x02"}}`)
	// Linked library placeholder
	writeFile(t, filepath.Join(root, "Linked.sol", "Linked.json"),
		`{"abi":[],"bytecode":{"object":"0x60__$aabbccddeeff00112233445566778899aa$__00"}}`)
	// Ignored outputs
	writeFile(t, filepath.Join(root, "build-info", "abc.json"), `{}`)
	writeFile(t, filepath.Join(root, "drop", "EditionMetadataRenderer.dbg.json"), `{}`)

	return root
}

func newTestRepository(root string) *Repository {
	return NewRepository(&config.RuntimeConfig{ArtifactsDir: root}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetArtifact(t *testing.T) {
	repo := newTestRepository(setupArtifacts(t))
	ctx := context.Background()

	t.Run("foundry", func(t *testing.T) {
		a, err := repo.GetArtifact(ctx, "HolographFeeManager")
		require.NoError(t, err)
		assert.Equal(t, "HolographFeeManager", a.Name)
		assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, a.Bytecode)
		assert.Equal(t, []string{"uint256", "address"}, a.ConstructorTypes())
	})

	t.Run("hardhat", func(t *testing.T) {
		a, err := repo.GetArtifact(ctx, "EditionMetadataRenderer")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x60, 0x01, 0x60, 0x02}, a.Bytecode)
		assert.Nil(t, a.ConstructorTypes())
	})

	t.Run("cached", func(t *testing.T) {
		a1, err := repo.GetArtifact(ctx, "HolographFeeManager")
		require.NoError(t, err)
		a2, err := repo.GetArtifact(ctx, "HolographFeeManager")
		require.NoError(t, err)
		assert.Same(t, a1, a2)
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := repo.GetArtifact(ctx, "Owned")
		var ambiguous domain.AmbiguousArtifactErr
		require.ErrorAs(t, err, &ambiguous)
		assert.Len(t, ambiguous.Paths, 2)
	})

	t.Run("qualified", func(t *testing.T) {
		a, err := repo.GetArtifact(ctx, "B.sol:Owned")
		require.NoError(t, err)
		assert.Equal(t, "Owned", a.Name)
		assert.Equal(t, []byte{0x02}, a.Bytecode)
	})

	t.Run("unlinked", func(t *testing.T) {
		_, err := repo.GetArtifact(ctx, "Linked")
		assert.ErrorContains(t, err, "unlinked")
	})

	t.Run("not found with suggestion", func(t *testing.T) {
		_, err := repo.GetArtifact(ctx, "FeeManager")
		require.ErrorIs(t, err, domain.ErrArtifactNotFound)
		assert.Contains(t, err.Error(), "did you mean HolographFeeManager")
	})
}

func TestListArtifacts(t *testing.T) {
	repo := newTestRepository(setupArtifacts(t))
	assert.Equal(t,
		[]string{"EditionMetadataRenderer", "HolographFeeManager", "Linked", "Owned"},
		repo.ListArtifacts(context.Background()))
}

func TestMissingArtifactsDir(t *testing.T) {
	repo := newTestRepository(filepath.Join(t.TempDir(), "out"))
	_, err := repo.GetArtifact(context.Background(), "Anything")
	assert.Error(t, err)
	assert.Empty(t, repo.ListArtifacts(context.Background()))
}

func TestParseBytecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []byte
		wantErr bool
	}{
		{name: "hardhat string", raw: `"0x6001"`, want: []byte{0x60, 0x01}},
		{name: "foundry object", raw: `{"object":"0x6001"}`, want: []byte{0x60, 0x01}},
		{name: "no prefix", raw: `{"object":"6001"}`, want: []byte{0x60, 0x01}},
		{name: "empty", raw: `"0x"`, want: []byte{}},
		{name: "odd length", raw: `"0x600"`, wantErr: true},
		{name: "wrong shape", raw: `42`, wantErr: true},
		{name: "missing", raw: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBytecode([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

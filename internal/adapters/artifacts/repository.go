package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

const maxSuggestions = 3

// artifactFile covers both Foundry ({"bytecode":{"object":...}}) and
// Hardhat ({"bytecode":"0x..."}) artifact layouts
type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

type foundryBytecode struct {
	Object string `json:"object"`
}

// Repository loads compiled artifacts from the artifacts directory
type Repository struct {
	root string
	log  *slog.Logger

	once  sync.Once
	err   error
	mu    sync.RWMutex
	index map[string][]string // contract name or Source.sol:Name -> artifact paths
	cache map[string]*models.Artifact
}

// NewRepository creates a new artifact repository
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		root:  cfg.ArtifactsDir,
		log:   log.With("component", "ArtifactRepository"),
		index: make(map[string][]string),
		cache: make(map[string]*models.Artifact),
	}
}

// GetArtifact returns the artifact for a contract name. A name shared by several
// sources must be qualified as Source.sol:Name.
func (r *Repository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if err := r.ensureIndexed(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	paths := r.index[name]
	cached := r.cache[name]
	r.mu.RUnlock()

	if cached != nil {
		return cached, nil
	}

	switch len(paths) {
	case 0:
		return nil, r.notFound(name)
	case 1:
	default:
		return nil, domain.AmbiguousArtifactErr{Name: name, Paths: paths}
	}

	artifact, err := loadArtifact(paths[0], contractName(name))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[name] = artifact
	r.mu.Unlock()

	r.log.Debug("artifact loaded", "name", name, "path", paths[0], "size", len(artifact.Bytecode))
	return artifact, nil
}

// ListArtifacts returns the unqualified names of all indexed artifacts
func (r *Repository) ListArtifacts(ctx context.Context) []string {
	if err := r.ensureIndexed(); err != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := lo.Filter(lo.Keys(r.index), func(k string, _ int) bool {
		return !strings.Contains(k, ":")
	})
	sort.Strings(names)
	return names
}

func (r *Repository) notFound(name string) error {
	names := r.ListArtifacts(context.Background())
	matches := fuzzy.Find(contractName(name), names)

	suggestions := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, m.Str)
	}

	if len(suggestions) == 0 {
		return fmt.Errorf("%s in %s: %w", name, r.root, domain.ErrArtifactNotFound)
	}
	return fmt.Errorf("%s in %s: %w (did you mean %s?)", name, r.root, domain.ErrArtifactNotFound,
		strings.Join(suggestions, ", "))
}

func (r *Repository) ensureIndexed() error {
	r.once.Do(func() {
		r.err = r.buildIndex()
	})
	return r.err
}

func (r *Repository) buildIndex() error {
	if _, err := os.Stat(r.root); err != nil {
		return fmt.Errorf("artifacts directory %s: %w", r.root, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".dbg.json") || strings.HasSuffix(path, ".metadata.json") {
			return nil
		}

		name := strings.TrimSuffix(d.Name(), ".json")
		// Foundry nests artifacts as out/<Source>.sol/<Name>.json
		parent := filepath.Base(filepath.Dir(path))
		r.index[name] = append(r.index[name], path)
		if strings.HasSuffix(parent, ".sol") {
			qualified := parent + ":" + name
			r.index[qualified] = append(r.index[qualified], path)
		}
		return nil
	})
}

func loadArtifact(path, name string) (*models.Artifact, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var file artifactFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	bytecode, err := parseBytecode(file.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	artifact := &models.Artifact{
		Name:     name,
		Path:     path,
		Bytecode: bytecode,
	}

	if len(file.ABI) > 0 && !bytes.Equal(file.ABI, []byte("null")) {
		parsed, err := abi.JSON(bytes.NewReader(file.ABI))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI of %s: %w", path, err)
		}
		artifact.ABI = &parsed
	}

	return artifact, nil
}

func parseBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing bytecode")
	}

	var object string
	if err := json.Unmarshal(raw, &object); err != nil {
		var fb foundryBytecode
		if err := json.Unmarshal(raw, &fb); err != nil {
			return nil, fmt.Errorf("unrecognized bytecode format: %w", err)
		}
		object = fb.Object
	}

	if strings.Contains(object, "__$") {
		return nil, fmt.Errorf("bytecode has unlinked library references")
	}
	if !strings.HasPrefix(object, "0x") {
		object = "0x" + object
	}
	if object == "0x" {
		return []byte{}, nil
	}

	code, err := hexutil.Decode(object)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode: %w", err)
	}
	return code, nil
}

func contractName(ref string) string {
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

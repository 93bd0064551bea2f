package plans

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/initcode"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

// DeployerRef resolves to the deploying account. No step may take this name.
const DeployerRef = "deployer"

var refPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// planFile is the YAML form of a plan:
//
//	name: my-drop
//	contracts:
//	  - name: HolographFeeManager
//	    args:
//	      - {type: uint256, value: 500}
//	      - {type: address, value: "${deployer}"}
//	  - name: HolographERC721Drop
//	    deps: [EditionMetadataRenderer]
//	    args:
//	      - type: tuple(address,bytes)
//	        value:
//	          - ${HolographFeeManager}
//	          - initcode:
//	              - {type: string, value: description}
type planFile struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Contracts   []contractSpec `yaml:"contracts"`
}

type contractSpec struct {
	Name     string    `yaml:"name"`
	Artifact string    `yaml:"artifact"`
	Deps     []string  `yaml:"deps"`
	Args     []argSpec `yaml:"args"`
}

type argSpec struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

type nestedSpec struct {
	InitCode []argSpec `yaml:"initcode"`
}

// typedArg is an argSpec whose type has been parsed
type typedArg struct {
	tag  initcode.TypeTag
	node *yaml.Node
}

// LoadPlanFile reads a YAML plan. References to other steps become dependency edges.
func LoadPlanFile(path string) (*models.Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "plan", Err: fmt.Errorf("failed to read plan file: %w", err)}
	}
	plan, err := ParsePlan(content)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "plan", Err: fmt.Errorf("%s: %w", path, err)}
	}
	if plan.Name == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return plan, nil
}

// ParsePlan parses the YAML form of a plan
func ParsePlan(content []byte) (*models.Plan, error) {
	var file planFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("invalid plan YAML: %w", err)
	}
	if len(file.Contracts) == 0 {
		return nil, fmt.Errorf("plan has no contracts")
	}

	plan := &models.Plan{Name: file.Name, Description: file.Description}
	for i, c := range file.Contracts {
		if c.Name == "" {
			return nil, fmt.Errorf("contract %d has no name", i)
		}
		if c.Name == DeployerRef {
			return nil, fmt.Errorf("contract %d: name %q is reserved for the deploying account", i, DeployerRef)
		}
		args, err := parseArgs(c.Args)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", c.Name, err)
		}

		refs := lo.Without(lo.Uniq(collectRefs(args)), DeployerRef)
		plan.Steps = append(plan.Steps, &models.PlanStep{
			Name:      c.Name,
			Artifact:  c.Artifact,
			DependsOn: lo.Uniq(append(append([]string{}, c.Deps...), refs...)),
			Build:     argsBuilder(args),
		})
	}
	return plan, nil
}

func parseArgs(specs []argSpec) ([]typedArg, error) {
	out := make([]typedArg, len(specs))
	for i := range specs {
		tag, err := initcode.ParseType(specs[i].Type)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		if specs[i].Value.Kind == 0 {
			return nil, fmt.Errorf("arg %d (%s) has no value", i, tag)
		}
		out[i] = typedArg{tag: tag, node: &specs[i].Value}
	}
	return out, nil
}

func argsBuilder(args []typedArg) models.InitCodeBuilder {
	return func(env models.BuildEnv) (initcode.Args, error) {
		out := initcode.Args{
			Types:  make([]initcode.TypeTag, len(args)),
			Values: make([]initcode.Value, len(args)),
		}
		for i, a := range args {
			v, err := toValue(a.tag, a.node, env)
			if err != nil {
				return initcode.Args{}, fmt.Errorf("arg %d (%s): %w", i, a.tag, err)
			}
			out.Types[i] = a.tag
			out.Values[i] = v
		}
		return out, nil
	}
}

// toValue converts a YAML node into a value of type t
func toValue(t initcode.TypeTag, node *yaml.Node, env models.BuildEnv) (initcode.Value, error) {
	switch t.Kind {
	case initcode.TypeUint, initcode.TypeInt:
		s, err := scalar(node)
		if err != nil {
			return initcode.Value{}, err
		}
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return initcode.Value{}, fmt.Errorf("invalid integer %q", s)
		}
		return initcode.BigInt(n), nil

	case initcode.TypeAddress:
		s, err := scalar(node)
		if err != nil {
			return initcode.Value{}, err
		}
		if m := refPattern.FindStringSubmatch(s); m != nil {
			if m[1] == DeployerRef {
				return initcode.AddressValue(env.Deployer), nil
			}
			addr, err := env.AddressOf(m[1])
			if err != nil {
				return initcode.Value{}, err
			}
			return initcode.AddressValue(addr), nil
		}
		if !common.IsHexAddress(s) {
			return initcode.Value{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, s)
		}
		return initcode.AddressValue(common.HexToAddress(s)), nil

	case initcode.TypeBool:
		s, err := scalar(node)
		if err != nil {
			return initcode.Value{}, err
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return initcode.Value{}, fmt.Errorf("invalid bool %q", s)
		}
		return initcode.BoolValue(b), nil

	case initcode.TypeString:
		s, err := scalar(node)
		if err != nil {
			return initcode.Value{}, err
		}
		return initcode.StringValue(s), nil

	case initcode.TypeBytes, initcode.TypeFixedBytes:
		if node.Kind == yaml.MappingNode {
			return nestedValue(node, env)
		}
		s, err := scalar(node)
		if err != nil {
			return initcode.Value{}, err
		}
		if s == "" || s == "0x" {
			return initcode.BytesValue(nil), nil
		}
		b, err := hexutil.Decode(s)
		if err != nil {
			return initcode.Value{}, fmt.Errorf("invalid hex %q: %w", s, err)
		}
		return initcode.BytesValue(b), nil

	case initcode.TypeSlice, initcode.TypeArray:
		if node.Kind != yaml.SequenceNode {
			return initcode.Value{}, fmt.Errorf("expected a list for %s", t)
		}
		items := make([]initcode.Value, len(node.Content))
		for i, child := range node.Content {
			v, err := toValue(*t.Elem, child, env)
			if err != nil {
				return initcode.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return initcode.Seq(items...), nil

	case initcode.TypeTuple:
		if node.Kind != yaml.SequenceNode {
			return initcode.Value{}, fmt.Errorf("expected a list for %s", t)
		}
		if len(node.Content) != len(t.Fields) {
			return initcode.Value{}, fmt.Errorf("%s has %d fields, got %d", t, len(t.Fields), len(node.Content))
		}
		fields := make([]initcode.Value, len(node.Content))
		for i, child := range node.Content {
			v, err := toValue(t.Fields[i], child, env)
			if err != nil {
				return initcode.Value{}, fmt.Errorf("field %d: %w", i, err)
			}
			fields[i] = v
		}
		return initcode.Tuple(fields...), nil
	}
	return initcode.Value{}, fmt.Errorf("unsupported type %s", t)
}

// nestedValue encodes an {initcode: [...]} mapping into a bytes value
func nestedValue(node *yaml.Node, env models.BuildEnv) (initcode.Value, error) {
	var nested nestedSpec
	if err := node.Decode(&nested); err != nil {
		return initcode.Value{}, fmt.Errorf("invalid nested initcode: %w", err)
	}
	args, err := parseArgs(nested.InitCode)
	if err != nil {
		return initcode.Value{}, fmt.Errorf("nested initcode: %w", err)
	}
	built, err := argsBuilder(args)(env)
	if err != nil {
		return initcode.Value{}, fmt.Errorf("nested initcode: %w", err)
	}
	return initcode.Encoded(built)
}

func scalar(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected a scalar at line %d", node.Line)
	}
	return node.Value, nil
}

// collectRefs returns every ${name} reference inside the args, nested payloads included
func collectRefs(args []typedArg) []string {
	var refs []string
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n.Kind == yaml.ScalarNode {
			if m := refPattern.FindStringSubmatch(n.Value); m != nil {
				refs = append(refs, m[1])
			}
			return
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	for _, a := range args {
		walk(a.node)
	}
	return refs
}

package render

import (
	"encoding/json"
	"io"

	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

type stepJSON struct {
	*models.StepResult
	Address string `json:"address"`
	Error   string `json:"error,omitempty"`
}

type networkJSON struct {
	Network  string     `json:"network"`
	ChainID  uint64     `json:"chainId,omitempty"`
	Deployer string     `json:"deployer"`
	TxCount  int        `json:"txCount"`
	Steps    []stepJSON `json:"steps"`
	Error    string     `json:"error,omitempty"`
	Report   string     `json:"report,omitempty"`
}

type campaignJSON struct {
	Plan     string        `json:"plan"`
	Salt     string        `json:"salt"`
	Factory  string        `json:"factory"`
	Deployer string        `json:"deployer,omitempty"`
	Networks []networkJSON `json:"networks"`
}

type addressStatusJSON struct {
	Network  string `json:"network"`
	ChainID  uint64 `json:"chainId,omitempty"`
	Address  string `json:"address"`
	Deployed bool   `json:"deployed"`
	Error    string `json:"error,omitempty"`
}

// WriteJSON writes v as indented JSON
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RunJSON writes a plan run with errors flattened to strings
func RunJSON(out io.Writer, result *usecase.RunPlanResult) error {
	return WriteJSON(out, campaignJSON{
		Plan:     result.Plan,
		Salt:     result.Salt.Hex(),
		Factory:  result.Factory.Hex(),
		Networks: networksJSON(result.Networks),
	})
}

// PredictJSON writes an address prediction with errors flattened to strings
func PredictJSON(out io.Writer, result *usecase.PredictAddressesResult) error {
	return WriteJSON(out, campaignJSON{
		Plan:     result.Plan,
		Salt:     result.Salt.Hex(),
		Factory:  result.Factory.Hex(),
		Deployer: result.Deployer.Hex(),
		Networks: networksJSON(result.Networks),
	})
}

func networksJSON(in []*usecase.NetworkRunResult) []networkJSON {
	out := make([]networkJSON, 0, len(in))
	for _, n := range in {
		nj := networkJSON{
			Network:  n.Network,
			ChainID:  n.ChainID,
			Deployer: n.Deployer.Hex(),
			TxCount:  n.TxCount,
			Error:    errString(n.Err),
			Report:   n.ReportPath,
		}
		for _, s := range n.Steps {
			nj.Steps = append(nj.Steps, stepJSON{StepResult: s, Address: s.Address.Hex(), Error: errString(s.Err)})
		}
		out = append(out, nj)
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// StatusesJSON writes address statuses with errors flattened to strings
func StatusesJSON(out io.Writer, result *usecase.ProbeAddressesResult) error {
	statuses := make([]addressStatusJSON, len(result.Statuses))
	for i, st := range result.Statuses {
		statuses[i] = addressStatusJSON{
			Network:  st.Network,
			ChainID:  st.ChainID,
			Address:  st.Address.Hex(),
			Deployed: st.Deployed,
			Error:    errString(st.Error),
		}
	}
	return WriteJSON(out, statuses)
}

package interactive

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

func testSummary() usecase.CampaignSummary {
	return usecase.CampaignSummary{
		Plan:     "erc721-drop",
		Factory:  common.HexToAddress("0x4e59b44847b379578588920cA78FbF26c0B4956C"),
		Steps:    []string{"HolographFeeManager", "EditionMetadataRenderer", "HolographERC721Drop"},
		Networks: []string{"sepolia", "holesky"},
		Deployers: map[string]common.Address{
			"sepolia": common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
			"holesky": common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		},
	}
}

func TestConfirm(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name           string
		nonInteractive bool
		answer         bool
		promptErr      error
		want           bool
		wantErr        bool
		wantPrompted   bool
	}{
		{name: "accepted", answer: true, want: true, wantPrompted: true},
		{name: "declined", answer: false, want: false, wantPrompted: true},
		{name: "prompt error", promptErr: errors.New("no tty"), wantErr: true, wantPrompted: true},
		{name: "non-interactive skips prompt", nonInteractive: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			var label string
			c := &ConfirmerAdapter{
				config: &config.RuntimeConfig{NonInteractive: tt.nonInteractive},
				out:    &out,
				prompt: func(l string) (bool, error) {
					label = l
					return tt.answer, tt.promptErr
				},
			}

			got, err := c.Confirm(context.Background(), testSummary())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			if !tt.wantPrompted {
				assert.Empty(t, label)
				assert.Empty(t, out.String())
				return
			}
			assert.Equal(t, "Deploy 3 contracts on 2 network(s)", label)
			assert.Contains(t, out.String(), "Plan:     erc721-drop")
			assert.Contains(t, out.String(), "3. HolographERC721Drop")
			assert.Contains(t, out.String(), "holesky")
		})
	}
}

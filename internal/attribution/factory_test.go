package attribution

import (
	"errors"
	"testing"

	"github.com/sotirisspyrou-uk/ai-marketing-toolkit/internal/domain"
)

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }

func TestFromConfig_AllTypes(t *testing.T) {
	for _, mt := range domain.AllModelTypes() {
		m, err := FromConfig(domain.ModelConfig{ModelType: mt})
		if err != nil {
			t.Errorf("FromConfig(%s) error: %v", mt, err)
			continue
		}
		if m.ID() != mt {
			t.Errorf("FromConfig(%s).ID() = %s", mt, m.ID())
		}
	}
}

func TestFromConfig_UnknownType(t *testing.T) {
	if _, err := FromConfig(domain.ModelConfig{ModelType: "U_SHAPED_CUSTOM"}); !errors.Is(err, ErrUnknownModelType) {
		t.Errorf("FromConfig() error = %v, want ErrUnknownModelType", err)
	}
}

func TestFromConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     domain.ModelConfig
		wantErr error
	}{
		{
			name: "time decay zero half-life",
			cfg: domain.ModelConfig{
				ModelType:    domain.ModelTypeTimeDecay,
				HalfLifeDays: float64Ptr(0),
			},
			wantErr: ErrInvalidHalfLife,
		},
		{
			name: "time decay negative half-life",
			cfg: domain.ModelConfig{
				ModelType:    domain.ModelTypeTimeDecay,
				HalfLifeDays: float64Ptr(-7),
			},
			wantErr: ErrInvalidHalfLife,
		},
		{
			name: "position weights not summing to 1",
			cfg: domain.ModelConfig{
				ModelType:    domain.ModelTypePositionBased,
				FirstWeight:  float64Ptr(0.5),
				LastWeight:   float64Ptr(0.5),
				MiddleWeight: float64Ptr(0.5),
			},
			wantErr: ErrInvalidPositionSplit,
		},
		{
			name: "negative position weight",
			cfg: domain.ModelConfig{
				ModelType:    domain.ModelTypePositionBased,
				FirstWeight:  float64Ptr(-0.2),
				LastWeight:   float64Ptr(1.0),
				MiddleWeight: float64Ptr(0.2),
			},
			wantErr: ErrInvalidPositionSplit,
		},
		{
			name: "shapley channel limit too large",
			cfg: domain.ModelConfig{
				ModelType:         domain.ModelTypeShapley,
				ExactChannelLimit: intPtr(30),
			},
			wantErr: ErrInvalidChannelLimit,
		},
		{
			name: "shapley zero samples",
			cfg: domain.ModelConfig{
				ModelType:   domain.ModelTypeShapley,
				SampleCount: intPtr(0),
			},
			wantErr: ErrInvalidSampleCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromConfig(tt.cfg); !errors.Is(err, tt.wantErr) {
				t.Errorf("FromConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromConfig_CustomPositionSplit(t *testing.T) {
	m, err := FromConfig(domain.ModelConfig{
		ModelType:    domain.ModelTypePositionBased,
		FirstWeight:  float64Ptr(0.3),
		LastWeight:   float64Ptr(0.3),
		MiddleWeight: float64Ptr(0.4),
	})
	if err != nil {
		t.Fatalf("FromConfig() error: %v", err)
	}
	if m.ID() != domain.ModelTypePositionBased {
		t.Errorf("ID() = %s", m.ID())
	}
}

package underwriting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"underwriting-lab/internal/domain"
)

func TestAIWeight(t *testing.T) {
	assert.Equal(t, 0.0, AIWeight(0))
	assert.Equal(t, 0.0, AIWeight(-0.1))
	assert.InDelta(t, 0.19, AIWeight(0.2), 1e-12)
	assert.InDelta(t, 0.31, AIWeight(0.8), 1e-12)
	assert.Equal(t, 0.35, AIWeight(1))
}

func TestBlend(t *testing.T) {
	assert.Equal(t, 42.0, Blend(42, 99, 0), "zero weight returns base exactly")
	assert.InDelta(t, 60.0, Blend(50, 80, 1.0/3.0), 1e-9)
	assert.Equal(t, 100.0, Blend(100, 150, 0.35))
}

func TestDriverLabel(t *testing.T) {
	assert.Equal(t, "Cash-on-cash", DriverLabel(domain.FeatureCashOnCash))
	assert.Equal(t, "Walk Score", DriverLabel("walk_score"))
}

func TestBlendRationale_LimitsDrivers(t *testing.T) {
	drivers := make([]domain.Contribution, 8)
	for i := range drivers {
		drivers[i] = domain.Contribution{Feature: domain.FeatureKeys[i], Contribution: -0.1}
	}

	lines := blendRationale(70, 0.35, 65, drivers)

	assert.Len(t, lines, 1+maxDrivers)
	assert.Equal(t, "AI driver: Cap rate pressures the grade (-0.10).", lines[1])
}

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"campaign", LevelCampaign, false},
		{"AdSet", LevelAdSet, false},
		{"AD", LevelAd, false},
		{"keyword", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestRow_ComputeRates(t *testing.T) {
	row := &Row{Spend: 25, Impressions: 10000, Clicks: 50}
	row.ComputeRates()

	assert.InDelta(t, 0.5, row.CTR, 1e-9)
	assert.InDelta(t, 0.5, row.CPC, 1e-9)
	assert.InDelta(t, 2.5, row.CPM, 1e-9)
}

func TestRow_ComputeRatesZeroDenominators(t *testing.T) {
	row := &Row{Spend: 10}
	row.ComputeRates()

	assert.Zero(t, row.CTR)
	assert.Zero(t, row.CPC)
	assert.Zero(t, row.CPM)
}

func TestRow_Validate(t *testing.T) {
	valid := Row{
		TenantID:  1,
		AccountID: 2,
		Level:     LevelCampaign,
		EntityID:  "123",
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, valid.Validate())

	noEntity := valid
	noEntity.EntityID = ""
	assert.Error(t, noEntity.Validate())

	badLevel := valid
	badLevel.Level = "hour"
	assert.Error(t, badLevel.Validate())

	noDate := valid
	noDate.Date = time.Time{}
	assert.Error(t, noDate.Validate())
}

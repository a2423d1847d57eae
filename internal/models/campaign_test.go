package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"health", "Health", true},
		{" WILDLIFE ", "Wildlife", true},
		{"emergency", "Emergency", true},
		{"creative", "Creative", true},
		{"nonprofit", "Nonprofit", true},
		{"Gardening", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeCategory(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCampaignStatusValid(t *testing.T) {
	for _, s := range []CampaignStatus{CampaignActive, CampaignCompleted, CampaignCancelled} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, CampaignStatus("paused").Valid())
}

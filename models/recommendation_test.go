package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendationStateMachine(t *testing.T) {
	tests := []struct {
		name    string
		from    RecommendationStatus
		to      RecommendationStatus
		allowed bool
	}{
		{"pending to approved", RecommendationStatusPending, RecommendationStatusApproved, true},
		{"pending to rejected", RecommendationStatusPending, RecommendationStatusRejected, true},
		{"pending to exported", RecommendationStatusPending, RecommendationStatusExported, false},
		{"approved to exported", RecommendationStatusApproved, RecommendationStatusExported, true},
		{"approved to rejected", RecommendationStatusApproved, RecommendationStatusRejected, false},
		{"approved to pending", RecommendationStatusApproved, RecommendationStatusPending, false},
		{"rejected to approved", RecommendationStatusRejected, RecommendationStatusApproved, false},
		{"rejected to exported", RecommendationStatusRejected, RecommendationStatusExported, false},
		{"exported to approved", RecommendationStatusExported, RecommendationStatusApproved, false},
		{"exported to rejected", RecommendationStatusExported, RecommendationStatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Recommendation{Status: tt.from}
			assert.Equal(t, tt.allowed, rec.CanTransitionTo(tt.to))
		})
	}
}

func TestRecommendationTerminalStates(t *testing.T) {
	assert.False(t, (&Recommendation{Status: RecommendationStatusPending}).IsTerminal())
	assert.False(t, (&Recommendation{Status: RecommendationStatusApproved}).IsTerminal())
	assert.True(t, (&Recommendation{Status: RecommendationStatusRejected}).IsTerminal())
	assert.True(t, (&Recommendation{Status: RecommendationStatusExported}).IsTerminal())

	assert.False(t, (&Recommendation{Status: RecommendationStatusPending}).IsDecided())
	assert.True(t, (&Recommendation{Status: RecommendationStatusApproved}).IsDecided())
}

func TestRecommendationStatusValid(t *testing.T) {
	assert.True(t, RecommendationStatusPending.Valid())
	assert.True(t, RecommendationStatusExported.Valid())
	assert.False(t, RecommendationStatus("archived").Valid())
}

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

func TestGroundingConfidence(t *testing.T) {
	passages := []vectorstore.Result{
		{Content: "The invoice total was 4200 euros including shipping costs"},
	}

	tests := []struct {
		name   string
		answer string
		want   func(t *testing.T, score float64)
	}{
		{
			"fully grounded",
			"invoice total 4200 euros shipping",
			func(t *testing.T, score float64) { assert.Equal(t, 1.0, score) },
		},
		{
			"partially grounded",
			"invoice total was roughly fifty dollars",
			func(t *testing.T, score float64) {
				assert.Greater(t, score, 0.0)
				assert.Less(t, score, 1.0)
			},
		},
		{
			"ungrounded",
			"bananas grow quickly",
			func(t *testing.T, score float64) { assert.Equal(t, 0.0, score) },
		},
		{
			"empty answer",
			"   ",
			func(t *testing.T, score float64) { assert.Equal(t, 0.0, score) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, GroundingConfidence(tt.answer, passages))
		})
	}
}

func TestGroundingConfidenceNoPassages(t *testing.T) {
	assert.Equal(t, 0.0, GroundingConfidence("any answer at all", nil))
}

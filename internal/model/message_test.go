package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageSources(t *testing.T) {
	var msg Message
	msg.SetSources([]Source{
		{DocumentKey: "abc", DocumentName: "report.pdf", Marker: "page 2", Excerpt: "the total was", Score: 0.91},
	})

	sources := msg.SourceList()
	require.Len(t, sources, 1)
	assert.Equal(t, "report.pdf", sources[0].DocumentName)
	assert.Equal(t, "page 2", sources[0].Marker)
}

func TestMessageSourcesEmpty(t *testing.T) {
	var msg Message
	msg.SetSources(nil)
	assert.Equal(t, "[]", msg.Sources)
	assert.Empty(t, msg.SourceList())

	msg.Sources = ""
	assert.Empty(t, msg.SourceList())
}

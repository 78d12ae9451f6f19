package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizingPolicy_Effective(t *testing.T) {
	p := DefaultSizingPolicy()

	tests := []struct {
		name      string
		topK      int
		detailed  bool
		wantTopK  int
		wantChars int
	}{
		{name: "detailed raises small top_k", topK: 1, detailed: true, wantTopK: 4, wantChars: 500},
		{name: "detailed keeps large top_k", topK: 9, detailed: true, wantTopK: 9, wantChars: 500},
		{name: "concise caps large top_k", topK: 10, detailed: false, wantTopK: 2, wantChars: 250},
		{name: "concise keeps small top_k", topK: 1, detailed: false, wantTopK: 1, wantChars: 250},
		{name: "concise default", topK: 3, detailed: false, wantTopK: 2, wantChars: 250},
		{name: "detailed raises zero top_k", topK: 0, detailed: true, wantTopK: 4, wantChars: 500},
		{name: "concise keeps zero top_k", topK: 0, detailed: false, wantTopK: 0, wantChars: 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, c := p.Effective(tt.topK, tt.detailed)
			assert.Equal(t, tt.wantTopK, k)
			assert.Equal(t, tt.wantChars, c)
		})
	}
}

func TestSizingPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultSizingPolicy().Validate())

	bad := DefaultSizingPolicy()
	bad.ConciseMaxTopK = 0
	assert.Error(t, bad.Validate())

	bad = DefaultSizingPolicy()
	bad.DetailedMaxChars = -1
	assert.Error(t, bad.Validate())
}

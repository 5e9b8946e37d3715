package preload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	list, err := Embedded()
	require.NoError(t, err)
	assert.Greater(t, list.Len(), 0)
}

func TestLookup(t *testing.T) {
	list, err := Parse([]byte(`{"entries": [
		{"name": "example.test", "include_subdomains": true},
		{"name": "nosubs.test", "include_subdomains": false},
		{"name": "dev", "include_subdomains": true}
	]}`))
	require.NoError(t, err)

	tests := []struct {
		name          string
		host          string
		wantPreloaded bool
		wantEntry     string
	}{
		{"exact match", "example.test", true, "example.test"},
		{"subdomain covered", "www.example.test", true, "example.test"},
		{"deep subdomain covered", "a.b.example.test", true, "example.test"},
		{"exact match without subdomains", "nosubs.test", true, "nosubs.test"},
		{"subdomain not covered", "www.nosubs.test", false, ""},
		{"preloaded tld", "anything.dev", true, "dev"},
		{"preloaded tld subdomain", "www.anything.dev", true, "dev"},
		{"unlisted", "unlisted.test", false, ""},
		{"trailing dot normalized", "example.test.", true, "example.test"},
		{"case insensitive", "EXAMPLE.test", true, "example.test"},
		{"empty", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := list.Lookup(tt.host)
			assert.Equal(t, tt.wantPreloaded, got.Preloaded)
			assert.Equal(t, tt.wantEntry, got.Entry)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte(`{"entries": [`))
	require.Error(t, err)
}

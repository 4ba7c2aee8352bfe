package domain

import (
	"strings"
	"testing"

	"github.com/lores-mesh/site-admin/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"simple", "riverside", true},
		{"hyphenated", "node-a", true},
		{"empty", "", false},
		{"uppercase", "Riverside", false},
		{"space", "river side", false},
		{"digits", "node1", false},
		{"trailing hyphen", "node-", false},
		{"too long", strings.Repeat("a", 51), false},
		{"max length", strings.Repeat("a", 50), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("name", tt.input)
			if tt.ok {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, result.CodeValidation, err.Code)
			assert.Equal(t, 422, err.Status)
		})
	}
}

func TestValidateIPv4(t *testing.T) {
	assert.Nil(t, ValidateIPv4("ip", "192.168.1.20"))
	assert.Nil(t, ValidateIPv4("ip", "0.0.0.0"))
	assert.NotNil(t, ValidateIPv4("ip", "256.1.1.1"))
	assert.NotNil(t, ValidateIPv4("ip", "10.0.0"))
	assert.NotNil(t, ValidateIPv4("ip", "fe80::1"))
	assert.NotNil(t, ValidateIPv4("ip", ""))
}

func TestJoinRegionValidate(t *testing.T) {
	assert.Nil(t, JoinRegion{NetworkName: "riverside"}.Validate())

	withPeer := JoinRegion{
		NetworkName:   "riverside",
		BootstrapPeer: &BootstrapPeer{NodeID: "a1b2", IP4: "10.0.0.4"},
	}
	assert.Nil(t, withPeer.Validate())

	withPeer.BootstrapPeer.IP4 = "nope"
	err := withPeer.Validate()
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "ip4")
}

func TestBootstrapNodeValidate(t *testing.T) {
	form := BootstrapNode{NetworkName: "riverside", NodeID: "abcdef", IPAddress: "10.1.2.3"}
	assert.Nil(t, form.Validate())

	form.NodeID = ""
	require.NotNil(t, form.Validate())
	assert.Contains(t, form.Validate().Message, "node_id")
}

func TestLocalKinds(t *testing.T) {
	var local Local = Node{ID: "n1", Name: "node-a"}
	assert.Equal(t, ScopeNode, local.Kind())
	assert.Equal(t, "node-a", local.LocalName())

	local = Site{ID: "1", Name: "site-a"}
	assert.Equal(t, ScopeSite, local.Kind())
	assert.Equal(t, "1", local.LocalID())

	kind, err := ParseScopeKind("site")
	require.NoError(t, err)
	assert.Equal(t, ScopeSite, kind)

	_, err = ParseScopeKind("region")
	assert.Error(t, err)
}

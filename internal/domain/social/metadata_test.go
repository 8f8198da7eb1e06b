package social

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/brandkit/internal/security/secretbox"
)

func TestMetadataRoundTripKeepsUnknownKeys(t *testing.T) {
	in := `{"notes":"legacy","tags":["a"],"oauth":{"provider":"facebook_login_instagram_graph","page_id":"p1","custom":42,"page_token":{"token_ciphertext":"c","token_iv":"i","token_tag":"t"}}}`

	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(in), &m))
	require.NotNil(t, m.OAuth)
	assert.Equal(t, "p1", m.OAuth.PageID)
	assert.JSONEq(t, `42`, string(m.OAuth.Extra["custom"]))
	assert.JSONEq(t, `"legacy"`, string(m.Extra["notes"]))

	tok, ok := m.PageToken()
	require.True(t, ok)
	assert.Equal(t, "c", tok.Ciphertext)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "legacy", back["notes"])
	oauth := back["oauth"].(map[string]any)
	assert.EqualValues(t, 42, oauth["custom"])
	assert.Equal(t, "p1", oauth["page_id"])
}

func TestMetadataToleratesOddOAuth(t *testing.T) {
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"oauth":"broken"}`), &m))
	assert.Nil(t, m.OAuth)
	_, ok := m.PageToken()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"oauth":{"page_token":{"token_ciphertext":"c"}}}`), &m))
	_, ok = m.PageToken()
	assert.False(t, ok, "secreto incompleto")
}

func TestWithOAuthPreservesExtra(t *testing.T) {
	m := Metadata{
		OAuth: &OAuthMetadata{PageID: "old"},
		Extra: map[string]json.RawMessage{"notes": json.RawMessage(`"x"`)},
	}
	next := m.WithOAuth(&OAuthMetadata{PageID: "new", PageToken: &secretbox.EncryptedSecret{Ciphertext: "a", IV: "b", Tag: "c"}})
	assert.Equal(t, "new", next.OAuth.PageID)
	assert.JSONEq(t, `"x"`, string(next.Extra["notes"]))
	assert.Equal(t, "old", m.OAuth.PageID)
}

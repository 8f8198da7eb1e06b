package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/brandkit/internal/config"
	"github.com/dropDatabas3/brandkit/internal/security/secretbox"
)

func TestSealRoundTrip(t *testing.T) {
	cfg := config.LoadFromEnv()
	cfg.Secrets.TokenEncryptionKey = "cli-test-key"
	load := func() (*config.Config, error) { return cfg, nil }

	var out bytes.Buffer
	cmd := newSealCmd(load)
	cmd.SetIn(strings.NewReader("EAAB-page-token\n"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var sealed secretbox.EncryptedSecret
	require.NoError(t, json.Unmarshal(out.Bytes(), &sealed))
	assert.True(t, sealed.Complete())

	box, err := secretbox.New("cli-test-key")
	require.NoError(t, err)
	plain, err := box.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "EAAB-page-token", plain)
}

func TestSealRequiresKey(t *testing.T) {
	cfg := config.LoadFromEnv()
	cfg.Secrets.TokenEncryptionKey = ""
	cmd := newSealCmd(func() (*config.Config, error) { return cfg, nil })
	cmd.SetIn(strings.NewReader("x\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}

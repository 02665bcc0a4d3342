package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"obsidian/crypto"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.RPCAddress)
	require.Equal(t, "./obsidian-data", cfg.DataDir)
	require.Equal(t, "obsidian-local", cfg.NetworkName)
	require.Empty(t, cfg.Genesis)

	// The default file is persisted and reloadable.
	_, err = os.Stat(path)
	require.NoError(t, err)
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, reloaded.RPCAddress)
}

func TestLoadParsesGenesisAllocations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	raw := make([]byte, 20)
	raw[19] = 0x42
	addr := crypto.NewAddress(crypto.ObsidianPrefix, raw).String()

	contents := `RPCAddress = ":9090"
DataDir = "./data"
NetworkName = "testnet"

[Genesis]
"` + addr + `" = 5000
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.RPCAddress)
	require.Equal(t, "testnet", cfg.NetworkName)
	require.Equal(t, uint64(5000), cfg.Genesis[addr])
}

func TestLoadRejectsInvalidGenesisAddress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	contents := `RPCAddress = ":8080"
DataDir = "./data"

[Genesis]
"not-an-address" = 100
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid genesis address")
}

func TestValidateRejectsEmptyFields(t *testing.T) {
	require.Error(t, (&Config{DataDir: "./data"}).Validate())
	require.Error(t, (&Config{RPCAddress: ":8080"}).Validate())
	require.NoError(t, (&Config{RPCAddress: ":8080", DataDir: "./data"}).Validate())
}

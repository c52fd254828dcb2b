package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/zakat/internal/services"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"screen", "hawl", "nisab", "pay", "serve", "setup"} {
		assert.Contains(t, names, want)
	}
}

func TestCalcFlags_Request(t *testing.T) {
	f := calcFlags{debts: "150.25", nisab: "600"}
	req, err := f.request("0x1111111111111111111111111111111111111111", "hawl_simple")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("150.25").Equal(req.Debts))
	assert.True(t, decimal.NewFromInt(600).Equal(req.Nisab))
	assert.Equal(t, services.BasisHawlSimple, req.Basis, "config basis applies when the flag is empty")

	f = calcFlags{basis: "instantaneous"}
	req, err = f.request("0x1111111111111111111111111111111111111111", "hawl_simple")
	require.NoError(t, err)
	assert.Equal(t, services.BasisInstantaneous, req.Basis)

	f = calcFlags{debts: "a lot"}
	_, err = f.request("0x1111111111111111111111111111111111111111", "")
	assert.ErrorContains(t, err, "--debts")
}

func TestNisabCmd_StaticPricer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pricer: static\n"), 0o600))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "nisab", "--json"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"nisab": "565.25"`)
}

func TestScreenCmd_InvalidAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pricer: static\n"), 0o600))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "screen", "0x12"})

	assert.ErrorContains(t, root.Execute(), "invalid input")
}

func TestPayCmd_RequiresBeneficiary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pricer: static\n"), 0o600))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "pay", "--amount", "20"})

	assert.ErrorContains(t, root.Execute(), "beneficiary")
}

func TestPayCmd_Amount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("beneficiary: \"0x2222222222222222222222222222222222222222\"\n"), 0o600))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "pay", "--amount", "20", "--json"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"data": "0xa9059cbb`)
	assert.Contains(t, out.String(), `"amount": "20"`)
}

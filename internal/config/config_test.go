package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trpleo/matching-engine/pkg/num"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
instrument: "ACME"
tick_size: "0.01"
lot_size: "1"
policy:
  name: "lmm_priority"
  minimum_quantity: "10"
  lmm_pct: 0.4
  lmm_accounts: ["mm1", "mm2"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ACME", cfg.Instrument)

	tick, err := num.FromString("0.01")
	require.NoError(t, err)
	assert.Equal(t, tick, cfg.TickSizeDec())
	assert.Equal(t, num.MustFromInt(1), cfg.LotSizeDec())

	pol, err := cfg.BuildPolicy()
	require.NoError(t, err)
	assert.Equal(t, "lmm_priority", pol.Name())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"minimal", Config{Instrument: "ACME"}, true},
		{"empty instrument", Config{}, false},
		{"zero tick", Config{Instrument: "A", TickSize: "0"}, false},
		{"negative lot", Config{Instrument: "A", LotSize: "-1"}, false},
		{"bad decimal", Config{Instrument: "A", TickSize: "abc"}, false},
		{"negative minimum", Config{Instrument: "A", Policy: PolicyConfig{MinimumQuantity: "-1"}}, false},
		{"pct too high", Config{Instrument: "A", Policy: PolicyConfig{LmmPct: 1.5}}, false},
		{"pct negative", Config{Instrument: "A", Policy: PolicyConfig{LmmPct: -0.1}}, false},
		{"unknown policy", Config{Instrument: "A", Policy: PolicyConfig{Name: "mystery"}}, false},
		{"threshold required", Config{Instrument: "A", Policy: PolicyConfig{Name: "threshold_pro_rata"}}, false},
		{"threshold ok", Config{Instrument: "A", Policy: PolicyConfig{Name: "threshold_pro_rata", Threshold: "5"}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestBuildPolicy(t *testing.T) {
	names := map[string]string{
		"":                   "price_time",
		"price_time":         "price_time",
		"pro_rata":           "pro_rata",
		"pro_rata_tob_fifo":  "pro_rata_tob_fifo",
		"threshold_pro_rata": "threshold_pro_rata",
	}
	for conf, want := range names {
		cfg := Config{Instrument: "A", Policy: PolicyConfig{Name: conf, Threshold: "5"}}
		require.NoError(t, cfg.Validate(), conf)
		pol, err := cfg.BuildPolicy()
		require.NoError(t, err, conf)
		assert.Equal(t, want, pol.Name(), conf)
	}
}

package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/yaml.v3"
)

func TestDuration_YAML(t *testing.T) {
	var out struct {
		D Duration `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`d: 1h30m`), &out))
	assert.Equal(t, 90*time.Minute, out.D.Std())
}

func TestDuration_JSONString(t *testing.T) {
	var out struct {
		D Duration `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d": "250ms"}`), &out))
	assert.Equal(t, 250*time.Millisecond, out.D.Std())
}

func TestDuration_Invalid(t *testing.T) {
	var out struct {
		D Duration `yaml:"d"`
	}
	require.Error(t, yaml.Unmarshal([]byte(`d: fast`), &out))
}

func TestDuration_RoundTrip(t *testing.T) {
	data, err := yaml.Marshal(Duration(5 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, "5s\n", string(data))
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("CFG_TEST_NAME", "ngt")
	p := writeFile(t, "name: ${CFG_TEST_NAME}\nport: 80\n")

	var s sample
	require.NoError(t, Load(p, &s))
	assert.Equal(t, sample{Name: "ngt", Port: 80}, s)
}

func TestLoad_Validates(t *testing.T) {
	p := writeFile(t, "name: x\nport: 0\n")
	var s sample
	assert.Error(t, Load(p, &s))
}

func TestLoadOptional_MissingKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 1}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, sample{Name: "default", Port: 1}, s, "defaults changed")
}

func TestLoadOptional_MissingStillValidates(t *testing.T) {
	var s sample
	_, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	assert.Error(t, err, "zero defaults should fail validation")
}

func TestLoadOptional_PresentOverrides(t *testing.T) {
	p := writeFile(t, "port: 9\n")
	s := sample{Name: "default", Port: 1}
	found, err := LoadOptional(p, &s)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "default", Port: 9}, s)
}

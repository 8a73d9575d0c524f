package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default() failed Validate: %v", err)
	}
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"z_axis_pulses_per_unit": 1600}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ZAxisPulsesPerUnit != 1600 {
		t.Errorf("ZAxisPulsesPerUnit = %v, want 1600", c.ZAxisPulsesPerUnit)
	}
	if c.FDda != defaults().FDda {
		t.Errorf("FDda = %v, want default %v", c.FDda, defaults().FDda)
	}
}

func TestValidateRejectsBadPolarity(t *testing.T) {
	c := Default()
	c.ZAxisMotorPolarity = 5
	if err := c.Validate(); err == nil {
		t.Error("expected error for invalid motor polarity")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing config file")
	}
}

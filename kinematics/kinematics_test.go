package kinematics

import "testing"

func TestMapScalesByPulsesPerUnit(t *testing.T) {
	m, err := NewMapper(
		AxisConfig{PulsesPerUnit: 200},
		AxisConfig{PulsesPerUnit: 400},
	)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	steps := m.Map([AxisCount]float64{1.0, 0.5}, 0)
	if steps[ZAxis] != 200 {
		t.Errorf("steps[ZAxis] = %v, want 200", steps[ZAxis])
	}
	if steps[RAxis] != 200 {
		t.Errorf("steps[RAxis] = %v, want 200", steps[RAxis])
	}
}

func TestMapZeroesInhibitedAxis(t *testing.T) {
	m, err := NewMapper(
		AxisConfig{PulsesPerUnit: 200, Inhibited: true},
		AxisConfig{PulsesPerUnit: 400},
	)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	steps := m.Map([AxisCount]float64{5.0, 1.0}, 0)
	if steps[ZAxis] != 0 {
		t.Errorf("inhibited axis produced steps[ZAxis] = %v, want 0", steps[ZAxis])
	}
	if steps[RAxis] != 400 {
		t.Errorf("steps[RAxis] = %v, want 400", steps[RAxis])
	}
}

func TestNewMapperRejectsNonPositivePulsesPerUnit(t *testing.T) {
	if _, err := NewMapper(AxisConfig{PulsesPerUnit: 0}, AxisConfig{PulsesPerUnit: 100}); err == nil {
		t.Error("expected error for zero PulsesPerUnit")
	}
	if _, err := NewMapper(AxisConfig{PulsesPerUnit: -1}, AxisConfig{PulsesPerUnit: 100}); err == nil {
		t.Error("expected error for negative PulsesPerUnit")
	}
}

package gpio

import "testing"

func TestMockDriver_ReadsBackWrites(t *testing.T) {
	d := NewMockDriver()
	if err := d.SetupPin(17, Output); err != nil {
		t.Fatal(err)
	}
	if lvl, _ := d.ReadPin(17); lvl != Low {
		t.Errorf("initial level = %v, want LOW", lvl)
	}
	if err := d.WritePin(17, High); err != nil {
		t.Fatal(err)
	}
	if lvl, _ := d.ReadPin(17); lvl != High {
		t.Errorf("level = %v, want HIGH", lvl)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewDriver_Mock(t *testing.T) {
	d, err := NewDriver(true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(*MockDriver); !ok {
		t.Errorf("got %T, want *MockDriver", d)
	}
}

func TestLevel_String(t *testing.T) {
	if High.String() != "HIGH" || Low.String() != "LOW" {
		t.Errorf("got %s/%s", High, Low)
	}
}

package sequencer

import (
	"testing"

	"github.com/pkg/errors"
)

type memDevice struct {
	data   []byte
	writes int
	failAt int // address that fails, -1 for none
}

func newMemDevice(n int) *memDevice {
	return &memDevice{data: make([]byte, n), failAt: -1}
}

func (m *memDevice) ReadByteAt(addr int) (byte, error) {
	if addr == m.failAt {
		return 0, errors.New("bus error")
	}
	return m.data[addr], nil
}

func (m *memDevice) WriteByteAt(addr int, b byte) error {
	if addr == m.failAt {
		return errors.New("bus error")
	}
	m.writes++
	m.data[addr] = b
	return nil
}

func (m *memDevice) Capacity() int { return len(m.data) }

func TestPatternStoreAddressing(t *testing.T) {
	ps := NewPatternStore(newMemDevice(1024), 4, 8)
	tests := []struct {
		bank, slot, want int
	}{
		{0, 0, 0},
		{0, 1, 22},
		{1, 0, 176},
		{1, 2, 220},
		{3, 7, 682},
	}
	for _, tt := range tests {
		if got := ps.Address(tt.bank, tt.slot); got != tt.want {
			t.Errorf("Address(%d, %d) = %d, want %d", tt.bank, tt.slot, got, tt.want)
		}
	}
}

func TestPatternStoreSaveLoad(t *testing.T) {
	dev := newMemDevice(1024)
	ps := NewPatternStore(dev, 4, 8)

	p := NewPattern()
	p.SetStep(0, Step{Octave: 5, PitchClass: 10})
	p.SetStep(1, Step{Tie: true})
	p.SetLength(9)
	p.SetShuffle(66)

	if err := ps.Save(2, 5, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if dev.data[ps.Address(2, 5)+20] != 9 {
		t.Errorf("length byte not at slot offset")
	}
	got, err := ps.Load(2, 5)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *p {
		t.Errorf("loaded %+v, want %+v", *got, *p)
	}
}

func TestPatternStoreSlotRange(t *testing.T) {
	dev := newMemDevice(1024)
	ps := NewPatternStore(dev, 4, 8)
	for _, bs := range [][2]int{{4, 0}, {0, 8}, {-1, 0}, {0, -1}} {
		err := ps.Save(bs[0], bs[1], NewPattern())
		if !errors.Is(err, ErrSlotRange) {
			t.Errorf("Save(%d, %d) error = %v, want ErrSlotRange", bs[0], bs[1], err)
		}
		var se *StorageError
		if !errors.As(err, &se) || se.Op != "save" || se.Bank != bs[0] {
			t.Errorf("Save(%d, %d) error %v is not a StorageError", bs[0], bs[1], err)
		}
	}
	if dev.writes != 0 {
		t.Errorf("%d bytes written for rejected slots", dev.writes)
	}
}

func TestPatternStoreCapacityCheckedFirst(t *testing.T) {
	dev := newMemDevice(100) // room for four patterns
	ps := NewPatternStore(dev, 4, 8)

	if err := ps.Save(0, 3, NewPattern()); err != nil {
		t.Fatalf("slot 3 should fit: %v", err)
	}
	dev.writes = 0
	err := ps.Save(0, 4, NewPattern())
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("error = %v, want ErrCapacity", err)
	}
	if dev.writes != 0 {
		t.Errorf("partial write of %d bytes beyond capacity", dev.writes)
	}
	if _, err := ps.Load(0, 4); !errors.Is(err, ErrCapacity) {
		t.Errorf("Load error = %v, want ErrCapacity", err)
	}
}

func TestPatternStoreDeviceFailure(t *testing.T) {
	dev := newMemDevice(1024)
	dev.failAt = 5
	ps := NewPatternStore(dev, 4, 8)

	err := ps.Save(0, 0, NewPattern())
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "save" || se.Address != 0 {
		t.Fatalf("error = %v, want StorageError for slot 0", err)
	}
	if _, err := ps.Load(0, 0); err == nil {
		t.Errorf("Load succeeded over a failing byte")
	}
}

func TestSequencerLoadSavePattern(t *testing.T) {
	s, _, _ := newTestSequencer(t)
	ps := NewPatternStore(newMemDevice(1024), 4, 8)

	s.Pattern().SetStep(0, Step{Octave: 2, PitchClass: 2})
	s.SetPatternLength(3)
	if err := s.SavePattern(ps, 1, 1); err != nil {
		t.Fatalf("SavePattern: %v", err)
	}

	saved := *s.Pattern()
	s.Pattern().SetStep(0, Step{Rest: true})
	s.SetPatternLength(16)
	s.currentStep = 12

	if err := s.LoadPattern(ps, 1, 1); err != nil {
		t.Fatalf("LoadPattern: %v", err)
	}
	if *s.Pattern() != saved {
		t.Errorf("loaded pattern differs from saved")
	}
	if s.CurrentStep() != 0 {
		t.Errorf("cursor = %d, want wrapped into length 3", s.CurrentStep())
	}

	before := *s.Pattern()
	if err := s.LoadPattern(ps, 9, 0); err == nil {
		t.Errorf("LoadPattern accepted bank 9")
	}
	if *s.Pattern() != before {
		t.Errorf("failed load changed the live pattern")
	}
}

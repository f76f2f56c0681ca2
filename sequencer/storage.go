package sequencer

import (
	"fmt"

	"github.com/pkg/errors"

	"tweakseq/debug"
)

// StorageDevice is byte addressable persistent memory
type StorageDevice interface {
	ReadByteAt(addr int) (byte, error)
	WriteByteAt(addr int, b byte) error
	Capacity() int
}

var (
	ErrSlotRange = errors.New("bank or slot out of range")
	ErrCapacity  = errors.New("address beyond storage capacity")
)

// StorageError describes a failed pattern load or save
type StorageError struct {
	Op      string // "load" or "save"
	Bank    int
	Slot    int
	Address int
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s bank %d slot %d (addr %d): %v", e.Op, e.Bank, e.Slot, e.Address, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Default bank layout
const (
	DefaultBanks        = 4
	DefaultSlotsPerBank = 8
)

// PatternStore keeps patterns in fixed slots of a StorageDevice. Slot
// (bank, slot) lives at PatternSize * (bank*slotsPerBank + slot).
type PatternStore struct {
	dev   StorageDevice
	banks int
	slots int
}

// NewPatternStore lays banks x slots patterns over dev. Non-positive
// counts fall back to the defaults.
func NewPatternStore(dev StorageDevice, banks, slotsPerBank int) *PatternStore {
	if banks <= 0 {
		banks = DefaultBanks
	}
	if slotsPerBank <= 0 {
		slotsPerBank = DefaultSlotsPerBank
	}
	return &PatternStore{dev: dev, banks: banks, slots: slotsPerBank}
}

func (ps *PatternStore) Banks() int        { return ps.banks }
func (ps *PatternStore) SlotsPerBank() int { return ps.slots }

// Address returns the first byte of a slot
func (ps *PatternStore) Address(bank, slot int) int {
	return PatternSize * (bank*ps.slots + slot)
}

// check validates a slot before any byte is touched
func (ps *PatternStore) check(op string, bank, slot int) (int, error) {
	addr := ps.Address(bank, slot)
	if bank < 0 || bank >= ps.banks || slot < 0 || slot >= ps.slots {
		return addr, &StorageError{Op: op, Bank: bank, Slot: slot, Address: addr, Err: ErrSlotRange}
	}
	if addr+PatternSize > ps.dev.Capacity() {
		return addr, &StorageError{Op: op, Bank: bank, Slot: slot, Address: addr,
			Err: errors.Wrapf(ErrCapacity, "need %d bytes, device has %d", addr+PatternSize, ps.dev.Capacity())}
	}
	return addr, nil
}

// Save writes p into a slot
func (ps *PatternStore) Save(bank, slot int, p *Pattern) error {
	addr, err := ps.check("save", bank, slot)
	if err != nil {
		debug.Log("store", "%v", err)
		return err
	}
	for i, b := range p.Serialize() {
		if err := ps.dev.WriteByteAt(addr+i, b); err != nil {
			return &StorageError{Op: "save", Bank: bank, Slot: slot, Address: addr,
				Err: errors.Wrapf(err, "write byte %d", addr+i)}
		}
	}
	debug.Log("store", "saved bank %d slot %d at %d", bank, slot, addr)
	return nil
}

// Load reads the pattern in a slot
func (ps *PatternStore) Load(bank, slot int) (*Pattern, error) {
	addr, err := ps.check("load", bank, slot)
	if err != nil {
		debug.Log("store", "%v", err)
		return nil, err
	}
	buf := make([]byte, PatternSize)
	for i := range buf {
		b, err := ps.dev.ReadByteAt(addr + i)
		if err != nil {
			return nil, &StorageError{Op: "load", Bank: bank, Slot: slot, Address: addr,
				Err: errors.Wrapf(err, "read byte %d", addr+i)}
		}
		buf[i] = b
	}
	p, err := Deserialize(buf)
	if err != nil {
		return nil, &StorageError{Op: "load", Bank: bank, Slot: slot, Address: addr, Err: err}
	}
	debug.Log("store", "loaded bank %d slot %d at %d", bank, slot, addr)
	return p, nil
}

// LoadPattern replaces the live pattern with the one in a slot. The live
// pattern is untouched on error.
func (s *Sequencer) LoadPattern(store *PatternStore, bank, slot int) error {
	p, err := store.Load(bank, slot)
	if err != nil {
		return err
	}
	*s.pattern = *p
	s.clampStep()
	return nil
}

// SavePattern copies the live pattern into a slot
func (s *Sequencer) SavePattern(store *PatternStore, bank, slot int) error {
	return store.Save(bank, slot, s.pattern)
}

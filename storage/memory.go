package storage

import (
	"sync"

	"github.com/pkg/errors"
)

// DefaultCapacity is a 1KB EEPROM
const DefaultCapacity = 1024

// Erased is the value of a never written byte
const Erased byte = 0xFF

// ErrAddress is returned for reads and writes outside the device
var ErrAddress = errors.New("address out of range")

// Memory is a volatile EEPROM image
type Memory struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemory creates an erased image of capacity bytes
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Memory{data: make([]byte, capacity)}
	for i := range m.data {
		m.data[i] = Erased
	}
	return m
}

func (m *Memory) ReadByteAt(addr int) (byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if addr < 0 || addr >= len(m.data) {
		return 0, errors.Wrapf(ErrAddress, "read %d of %d", addr, len(m.data))
	}
	return m.data[addr], nil
}

func (m *Memory) WriteByteAt(addr int, b byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr >= len(m.data) {
		return errors.Wrapf(ErrAddress, "write %d of %d", addr, len(m.data))
	}
	m.data[addr] = b
	return nil
}

func (m *Memory) Capacity() int { return len(m.data) }

// Bytes returns a copy of the image
func (m *Memory) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

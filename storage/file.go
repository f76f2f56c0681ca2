package storage

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"tweakseq/debug"
)

// File is an EEPROM image kept in a file. Reads come from memory; every
// write goes straight through to disk.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
	data []byte
}

// OpenFile opens or creates the image at path. A new or short file is
// padded with erased bytes up to capacity.
func OpenFile(path string, capacity int) (*File, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create image directory")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open image %s", path)
	}

	data := make([]byte, capacity)
	n, err := io.ReadFull(f, data)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return nil, errors.Wrapf(err, "read image %s", path)
	}
	if n < capacity {
		for i := n; i < capacity; i++ {
			data[i] = Erased
		}
		if _, err := f.WriteAt(data[n:], int64(n)); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "extend image %s", path)
		}
		debug.Log("store", "image %s extended from %d to %d bytes", path, n, capacity)
	}

	return &File{path: path, f: f, data: data}, nil
}

func (fi *File) ReadByteAt(addr int) (byte, error) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if addr < 0 || addr >= len(fi.data) {
		return 0, errors.Wrapf(ErrAddress, "read %d of %d", addr, len(fi.data))
	}
	return fi.data[addr], nil
}

func (fi *File) WriteByteAt(addr int, b byte) error {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if addr < 0 || addr >= len(fi.data) {
		return errors.Wrapf(ErrAddress, "write %d of %d", addr, len(fi.data))
	}
	if fi.f == nil {
		return errors.Errorf("image %s is closed", fi.path)
	}
	if _, err := fi.f.WriteAt([]byte{b}, int64(addr)); err != nil {
		return errors.Wrapf(err, "write image %s", fi.path)
	}
	fi.data[addr] = b
	return nil
}

func (fi *File) Capacity() int { return len(fi.data) }
func (fi *File) Path() string  { return fi.path }

// Sync flushes the image to disk
func (fi *File) Sync() error {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if fi.f == nil {
		return nil
	}
	return fi.f.Sync()
}

// Close flushes and closes the image
func (fi *File) Close() error {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if fi.f == nil {
		return nil
	}
	err := fi.f.Sync()
	if cerr := fi.f.Close(); err == nil {
		err = cerr
	}
	fi.f = nil
	return err
}

// snapshot returns a copy of the image bytes
func (fi *File) snapshot() []byte {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	out := make([]byte, len(fi.data))
	copy(out, fi.data)
	return out
}

// replace overwrites the whole image
func (fi *File) replace(data []byte) error {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if fi.f == nil {
		return errors.Errorf("image %s is closed", fi.path)
	}
	buf := make([]byte, len(fi.data))
	for i := range buf {
		buf[i] = Erased
	}
	copy(buf, data)
	if _, err := fi.f.WriteAt(buf, 0); err != nil {
		return errors.Wrapf(err, "restore image %s", fi.path)
	}
	fi.data = buf
	return fi.f.Sync()
}

package regs

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// A regular file stands in for the memory device; offsets into it play the
// part of physical addresses.
func TestMemOnFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "mem")
	if err := os.WriteFile(p, make([]byte, 2*PAGE_SIZE), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	m, err := OpenMem(p, []Region{{Base: PAGE_SIZE + 0x20, Size: 0x10}})
	if err != nil {
		t.Fatalf("OpenMem failed: %v", err)
	}
	base := uint32(PAGE_SIZE + 0x20)
	m.Write32(base, 0xdeadbeef)
	m.Write16(base+4, 0x1234)
	m.Write8(base+7, 0x56)
	if got := m.Read32(base); got != 0xdeadbeef {
		t.Errorf("Read32, got: %08X, want: DEADBEEF", got)
	}
	if got := m.Read8(base + 1); got != 0xbe {
		t.Errorf("Read8, got: %02X, want: BE", got)
	}
	if got := m.Read16(base + 4); got != 0x1234 {
		t.Errorf("Read16, got: %04X, want: 1234", got)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got := binary.LittleEndian.Uint32(data[base+4:]); got != 0x56001234 {
		t.Errorf("File contents, got: %08X, want: 56001234", got)
	}
}

func TestMemUnmapped(t *testing.T) {
	p := filepath.Join(t.TempDir(), "mem")
	if err := os.WriteFile(p, make([]byte, PAGE_SIZE), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	m, err := OpenMem(p, []Region{{Base: 0x100, Size: 4}})
	if err != nil {
		t.Fatalf("OpenMem failed: %v", err)
	}
	defer m.Close()
	defer func() {
		if recover() == nil {
			t.Errorf("Access outside regions, got: no panic, want: panic")
		}
	}()
	m.Read32(0x104)
}

func TestOpenMemMissing(t *testing.T) {
	if _, err := OpenMem(filepath.Join(t.TempDir(), "nope"), []Region{{Base: 0, Size: 4}}); err == nil {
		t.Errorf("OpenMem of missing file, got: nil error, want: error")
	}
}

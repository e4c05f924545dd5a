package regs

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
)

const (
	PAGE_SIZE = 4096
	MEM_FILE  = "/dev/mem"
)

// Region is a physical address range to map.
type Region struct {
	Base uint32
	Size int
}

type window struct {
	base uint32
	size int
	buf  mmap.MMap
	offs uintptr
}

// Mem is a register file backed by mappings of a memory device, normally
// /dev/mem. Accessing an address outside every mapped Region panics.
type Mem struct {
	path    string
	windows []window
}

// OpenMem maps each region of the memory device at path.
func OpenMem(path string, regions []Region) (*Mem, error) {
	if path == "" {
		path = MEM_FILE
	}
	m := &Mem{path: path}
	for _, r := range regions {
		buf, offs, err := mapMem(path, uintptr(r.Base), r.Size)
		if err != nil {
			m.Close() // Ignore error
			return nil, fmt.Errorf("couldn't map region %08X+%d: %v", r.Base, r.Size, err)
		}
		log.Printf("Got window[%d] for %08X, offset %d\n", len(buf), r.Base, offs)
		m.windows = append(m.windows, window{base: r.Base, size: r.Size, buf: buf, offs: offs})
	}
	return m, nil
}

// Close unmaps every window, returning the first error.
func (m *Mem) Close() error {
	var err error
	for i := range m.windows {
		if m.windows[i].buf == nil {
			continue
		}
		te := m.windows[i].buf.Unmap()
		m.windows[i].buf = nil
		if err == nil {
			err = te
		}
	}
	return err
}

// mapMem opens the memory device and uses mmap to map a given physical address into our address space.
// Since the mapping has to start at a page boundary, the physical address is rounded down to the
// nearest page boundary. mapMem returns the mapped memory and the offset that should be used to
// access it (=physAddr%PAGE_SIZE).
func mapMem(path string, physAddr uintptr, size int) (mmap.MMap, uintptr, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, os.ModePerm)
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't open %s: %v", path, err)
	}
	defer f.Close() // The mapping outlives the descriptor

	pagemask := ^uintptr(PAGE_SIZE - 1)
	mapAddr := physAddr & pagemask
	size += int(physAddr - mapAddr)
	mm, err := mmap.MapRegion(f, size, mmap.RDWR, 0, int64(mapAddr))
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't map region (%v, %v): %v", physAddr, size, err)
	}
	return mm, physAddr - mapAddr, nil
}

func (m *Mem) ptr(addr uint32, width uint32) unsafe.Pointer {
	for i := range m.windows {
		w := &m.windows[i]
		if addr >= w.base && addr+width <= w.base+uint32(w.size) {
			return unsafe.Pointer(&w.buf[w.offs+uintptr(addr-w.base)])
		}
	}
	panic(fmt.Sprintf("register %08X not mapped from %s", addr, m.path))
}

func (m *Mem) Read8(addr uint32) uint8 {
	return *(*uint8)(m.ptr(addr, 1))
}

func (m *Mem) Read16(addr uint32) uint16 {
	return *(*uint16)(m.ptr(addr, 2))
}

func (m *Mem) Read32(addr uint32) uint32 {
	return atomic.LoadUint32((*uint32)(m.ptr(addr, 4)))
}

func (m *Mem) Write8(addr uint32, val uint8) {
	*(*uint8)(m.ptr(addr, 1)) = val
}

func (m *Mem) Write16(addr uint32, val uint16) {
	*(*uint16)(m.ptr(addr, 2)) = val
}

func (m *Mem) Write32(addr uint32, val uint32) {
	atomic.StoreUint32((*uint32)(m.ptr(addr, 4)), val)
}

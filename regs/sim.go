package regs

// Op is the kind of a recorded register access.
type Op byte

const (
	OpRead  Op = 'R'
	OpWrite Op = 'W'
)

// Access is one recorded register access. Addr is word aligned and Val is
// the whole word as seen by a read or as left by a write.
type Access struct {
	Op   Op
	Addr uint32
	Val  uint32
}

// WriteHook is called after a write lands in the word at addr. Hooks model
// hardware side effects and should use Peek/Poke, which don't re-enter hooks.
type WriteHook func(s *Sim, addr uint32, old, val uint32)

type pending struct {
	mask  uint32
	reads int
	set   bool
}

// Sim is a simulated register file. Words not written read as zero.
// Sim is not safe for concurrent use.
type Sim struct {
	words map[uint32]uint32
	hooks map[uint32][]WriteHook
	pend  map[uint32][]pending

	// Record enables the access trace.
	Record bool
	Trace  []Access
}

func NewSim() *Sim {
	return &Sim{
		words: make(map[uint32]uint32),
		hooks: make(map[uint32][]WriteHook),
		pend:  make(map[uint32][]pending),
	}
}

func wordAddr(addr uint32) uint32 {
	return addr &^ 3
}

func laneShift(addr uint32) uint32 {
	return (addr & 3) * 8
}

// Peek returns the word containing addr without tracing or advancing
// pending bit changes.
func (s *Sim) Peek(addr uint32) uint32 {
	return s.words[wordAddr(addr)]
}

// Poke stores a word without running hooks or tracing.
func (s *Sim) Poke(addr uint32, val uint32) {
	s.words[wordAddr(addr)] = val
}

// OnWrite registers a hook for writes to the word containing addr.
func (s *Sim) OnWrite(addr uint32, h WriteHook) {
	a := wordAddr(addr)
	s.hooks[a] = append(s.hooks[a], h)
}

// Pulse sets mask in the word at addr now and clears it once the word has
// been read the given number of times.
func (s *Sim) Pulse(addr uint32, mask uint32, reads int) {
	a := wordAddr(addr)
	if reads <= 0 {
		s.words[a] &^= mask
		return
	}
	s.words[a] |= mask
	s.pend[a] = append(s.pend[a], pending{mask: mask, reads: reads})
}

// Rise clears mask in the word at addr now and sets it once the word has
// been read the given number of times.
func (s *Sim) Rise(addr uint32, mask uint32, reads int) {
	a := wordAddr(addr)
	if reads <= 0 {
		s.words[a] |= mask
		return
	}
	s.words[a] &^= mask
	s.pend[a] = append(s.pend[a], pending{mask: mask, reads: reads, set: true})
}

// ResetTrace drops the recorded accesses.
func (s *Sim) ResetTrace() {
	s.Trace = s.Trace[:0]
}

func (s *Sim) read(addr uint32) uint32 {
	a := wordAddr(addr)
	w := s.words[a]
	if s.Record {
		s.Trace = append(s.Trace, Access{OpRead, a, w})
	}
	if ps := s.pend[a]; len(ps) > 0 {
		keep := ps[:0]
		for _, p := range ps {
			p.reads--
			if p.reads > 0 {
				keep = append(keep, p)
				continue
			}
			if p.set {
				s.words[a] |= p.mask
			} else {
				s.words[a] &^= p.mask
			}
		}
		if len(keep) == 0 {
			delete(s.pend, a)
		} else {
			s.pend[a] = keep
		}
	}
	return w
}

func (s *Sim) write(addr uint32, val uint32) {
	a := wordAddr(addr)
	old := s.words[a]
	s.words[a] = val
	if s.Record {
		s.Trace = append(s.Trace, Access{OpWrite, a, val})
	}
	for _, h := range s.hooks[a] {
		h(s, a, old, val)
	}
}

func (s *Sim) Read8(addr uint32) uint8 {
	return uint8(s.read(addr) >> laneShift(addr))
}

func (s *Sim) Read16(addr uint32) uint16 {
	return uint16(s.read(addr) >> laneShift(addr))
}

func (s *Sim) Read32(addr uint32) uint32 {
	return s.read(addr)
}

func (s *Sim) Write8(addr uint32, val uint8) {
	sh := laneShift(addr)
	w := s.words[wordAddr(addr)]&^(0xff<<sh) | uint32(val)<<sh
	s.write(addr, w)
}

func (s *Sim) Write16(addr uint32, val uint16) {
	sh := laneShift(addr)
	w := s.words[wordAddr(addr)]&^(0xffff<<sh) | uint32(val)<<sh
	s.write(addr, w)
}

func (s *Sim) Write32(addr uint32, val uint32) {
	s.write(addr, val)
}

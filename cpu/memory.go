package cpu

const (
	MEMORY_PAGE_SIZE = 4096       // Allocation granule of Memory.
	MEMORY_BASE      = 0x40000000 // Conventional start of the data segment.
)

type page [MEMORY_PAGE_SIZE]uint8

// Memory is a sparse, byte addressable, little endian memory.
// Unwritten memory reads as zero.
type Memory struct {
	pages map[uint64]*page
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: map[uint64]*page{}}
}

// Reset forgets all memory contents.
func (mem *Memory) Reset() {
	clear(mem.pages)
}

// ReadBytes reads count bytes at addr.
func (mem *Memory) ReadBytes(addr uint64, count int) (data []uint8) {
	data = make([]uint8, count)
	for n := range data {
		at := addr + uint64(n)
		pg, ok := mem.pages[at/MEMORY_PAGE_SIZE]
		if ok {
			data[n] = pg[at%MEMORY_PAGE_SIZE]
		}
	}
	return
}

// WriteBytes writes data at addr.
func (mem *Memory) WriteBytes(addr uint64, data []uint8) {
	for n, b := range data {
		at := addr + uint64(n)
		pg, ok := mem.pages[at/MEMORY_PAGE_SIZE]
		if !ok {
			if b == 0 {
				continue
			}
			pg = &page{}
			mem.pages[at/MEMORY_PAGE_SIZE] = pg
		}
		pg[at%MEMORY_PAGE_SIZE] = b
	}
}

// Read reads a single value of type T at addr.
func Read[T Section](mem *Memory, addr uint64) T {
	return ReadVec[T](mem, addr, 1)[0]
}

// Write writes a single value of type T at addr.
func Write[T Section](mem *Memory, addr uint64, value T) {
	WriteVec(mem, addr, []T{value})
}

// ReadVec reads count consecutive values of type T at addr.
func ReadVec[T Section](mem *Memory, addr uint64, count int) []T {
	return decodeSections[T](mem.ReadBytes(addr, count*SectionBytes[T]()))
}

// WriteVec writes consecutive values of type T at addr.
func WriteVec[T Section](mem *Memory, addr uint64, values []T) {
	mem.WriteBytes(addr, encodeSections(values))
}

package cpu

import (
	"encoding/binary"
	"log"

	"github.com/holiman/uint256"
)

// Section is the set of unsigned lane types a vector register can be split into.
type Section interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// SectionBytes is the width of a Section type in bytes.
func SectionBytes[T Section]() int {
	var zero T
	return binary.Size(zero)
}

func decodeSections[T Section](data []uint8) (values []T) {
	width := SectionBytes[T]()
	values = make([]T, len(data)/width)
	for n := range values {
		var word uint64
		for b := width - 1; b >= 0; b-- {
			word = (word << 8) | uint64(data[n*width+b])
		}
		values[n] = T(word)
	}
	return
}

func encodeSections[T Section](values []T) (data []uint8) {
	width := SectionBytes[T]()
	data = make([]uint8, len(values)*width)
	for n, value := range values {
		word := uint64(value)
		for b := range width {
			data[n*width+b] = uint8(word >> (8 * b))
		}
	}
	return
}

// GetBySections reads a vector register as lanes of type T, lane 0 first.
func GetBySections[T Section](cpu *Cpu, kind VecRegName, index int) (values []T, err error) {
	view, err := cpu.vectorView(kind, index)
	if err != nil {
		return
	}

	values = decodeSections[T](view)
	return
}

// SetBySections writes a vector register from lanes of type T, zeroing the
// register above the view.
func SetBySections[T Section](cpu *Cpu, kind VecRegName, index int, values []T) (err error) {
	return setBySections(cpu, kind, index, values, true)
}

// MergeBySections writes a vector register from lanes of type T, preserving
// the register above the view.
func MergeBySections[T Section](cpu *Cpu, kind VecRegName, index int, values []T) (err error) {
	return setBySections(cpu, kind, index, values, false)
}

func setBySections[T Section](cpu *Cpu, kind VecRegName, index int, values []T, zeroUpper bool) (err error) {
	if len(values)*SectionBytes[T]() != kind.Bytes() {
		if cpu.Verbose {
			log.Printf("cpu: %v%d: %d lanes of %d bytes", kind, index, len(values), SectionBytes[T]())
		}
		err = ErrSectionCount
		return
	}

	return cpu.SetVectorBytes(kind, index, encodeSections(values), zeroUpper)
}

// GetWideSections reads a vector register as 128-bit or 256-bit lanes.
func GetWideSections(cpu *Cpu, kind VecRegName, index int, bits int) (values []uint256.Int, err error) {
	if bits != 128 && bits != 256 {
		err = ErrSectionWidth
		return
	}

	view, err := cpu.vectorView(kind, index)
	if err != nil {
		return
	}
	if len(view)*8 < bits {
		err = ErrSectionCount
		return
	}

	width := bits / 8
	values = make([]uint256.Int, len(view)/width)
	for n := range values {
		lane := view[n*width : (n+1)*width]
		for limb := range width / 8 {
			values[n][limb] = binary.LittleEndian.Uint64(lane[limb*8:])
		}
	}

	return
}

// SetWideSections writes a vector register from 128-bit or 256-bit lanes,
// zeroing the register above the view. Bits of a 128-bit lane above bit 127
// are ignored.
func SetWideSections(cpu *Cpu, kind VecRegName, index int, bits int, values []uint256.Int) (err error) {
	if bits != 128 && bits != 256 {
		err = ErrSectionWidth
		return
	}

	width := bits / 8
	if len(values)*width != kind.Bytes() {
		err = ErrSectionCount
		return
	}

	data := make([]uint8, kind.Bytes())
	for n, value := range values {
		for limb := range width / 8 {
			binary.LittleEndian.PutUint64(data[n*width+limb*8:], value[limb])
		}
	}

	return cpu.SetVectorBytes(kind, index, data, true)
}

// Package config loads simdviz settings from TOML: the animation pace, the
// registers to display, and the initial contents of registers and memory.
package config

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/holiman/uint256"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/emulator"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

// Animation is the [animation] table.
type Animation struct {
	Animate  bool    `toml:"animate"`   // Animate steps.
	Factor   float32 `toml:"factor"`    // Speed per unit of remaining distance.
	MinSpeed float32 `toml:"min_speed"` // Slowest element speed, units per second.
	MaxSpeed float32 `toml:"max_speed"` // Fastest element speed, units per second.
	Fps      int     `toml:"fps"`       // Host frame rate.
}

// Speed is the element motion speed.
func (anim Animation) Speed() visual.Speed {
	return visual.Speed{Factor: anim.Factor, Min: anim.MinSpeed, Max: anim.MaxSpeed}
}

// Dt is the frame time in seconds.
func (anim Animation) Dt() float32 {
	return 1 / float32(anim.Fps)
}

// FrameTime is the frame period.
func (anim Animation) FrameTime() time.Duration {
	return time.Second / time.Duration(anim.Fps)
}

func (anim Animation) Validate() (err error) {
	if anim.Fps <= 0 {
		err = ErrFrameRate
		return
	}
	if anim.MinSpeed > anim.MaxSpeed {
		err = ErrSpeedBounds
		return
	}
	return
}

// Display is the [display] table. Types are keyed by register name.
type Display struct {
	Registers []string                    `toml:"registers"`
	Types     map[string]visual.ValueType `toml:"types"`
}

// Build resolves the register names.
func (disp Display) Build() (display *visual.Display, err error) {
	types := map[string]visual.ValueType{}
	for name, vt := range disp.Types {
		types[strings.ToLower(name)] = vt
	}

	display = visual.NewDisplay()
	for _, name := range disp.Registers {
		var reg cpu.Register
		reg, err = cpu.ParseRegister(name)
		if err != nil {
			err = &ErrEntry{Name: name, Err: err}
			return
		}

		vt, ok := types[strings.ToLower(name)]
		if !ok {
			vt = visual.DefaultType(reg)
		}
		if vt.Bits() > reg.Bits() {
			err = &ErrEntry{Name: name, Err: visual.ErrValueWidth}
			return
		}

		display.Add(reg, vt)
	}

	return
}

// Register is an [[init.register]] entry. General purpose registers take a
// single value; vector registers take up to a register's worth of lanes,
// the rest are zero.
type Register struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"` // Lane type, the display default if empty.
	Values []any  `toml:"values"`
}

// Memory is an [[init.memory]] entry.
type Memory struct {
	Address uint64 `toml:"address"`
	Type    string `toml:"type"` // Lane type, u32 if empty.
	Values  []any  `toml:"values"`
}

// Init is the [init] table.
type Init struct {
	Register []Register `toml:"register"`
	Memory   []Memory   `toml:"memory"`
}

// Config is a complete configuration.
type Config struct {
	Animation Animation `toml:"animation"`
	Display   Display   `toml:"display"`
	Init      Init      `toml:"init"`
	Program   string    `toml:"program"` // Listing loaded at start, if any.
}

// DEMO_PROGRAM is a 16 lane prefix sum, in four shift and add rounds.
const DEMO_PROGRAM = `; prefix sum of the 16 dwords at MEMORY_BASE
mov rsi, MEMORY_BASE
vmovdqa zmm0, [rsi]
valignd zmm1, zmm0, zmm2, 15
vpaddd zmm0, zmm0, zmm1
valignd zmm1, zmm0, zmm2, 14
vpaddd zmm0, zmm0, zmm1
valignd zmm1, zmm0, zmm2, 12
vpaddd zmm0, zmm0, zmm1
valignd zmm1, zmm0, zmm2, 8
vpaddd zmm0, zmm0, zmm1
vmovdqa [rsi + 64], zmm0
`

func defaultAnimation() Animation {
	speed := visual.DefaultSpeed
	return Animation{
		Animate:  true,
		Factor:   speed.Factor,
		MinSpeed: speed.Min,
		MaxSpeed: speed.Max,
		Fps:      60,
	}
}

// Default is the built-in demo.
func Default() (cfg *Config) {
	values := make([]any, 16)
	for n := range values {
		values[n] = int64(n + 1)
	}

	cfg = &Config{
		Animation: defaultAnimation(),
		Display: Display{
			Registers: []string{"zmm0", "zmm1", "zmm2"},
			Types:     map[string]visual.ValueType{},
		},
		Init: Init{
			Memory: []Memory{
				{Address: cpu.MEMORY_BASE, Type: "u32", Values: values},
			},
		},
		Program: DEMO_PROGRAM,
	}

	return
}

// Decode reads a configuration. Missing animation settings keep their
// defaults; unknown keys are an error.
func Decode(r io.Reader) (cfg *Config, err error) {
	cfg = &Config{Animation: defaultAnimation()}

	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		cfg = nil
		return
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		err = &ErrEntry{Name: undecoded[0].String(), Err: ErrUnknownKey}
		cfg = nil
		return
	}

	err = cfg.Animation.Validate()
	if err != nil {
		cfg = nil
		return
	}

	return
}

// Load reads a configuration file.
func Load(path string) (cfg *Config, err error) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	return Decode(file)
}

// Apply configures an emulator: speed, display, initial register and memory
// contents, and the program, if any.
func (cfg *Config) Apply(emu *emulator.Emulator) (err error) {
	display, err := cfg.Display.Build()
	if err != nil {
		return
	}

	emu.Speed = cfg.Animation.Speed()
	emu.Animate = cfg.Animation.Animate
	emu.Display = display

	emu.Cpu.Lock()
	err = cfg.Init.apply(emu.Cpu, display)
	emu.Cpu.Unlock()
	if err != nil {
		return
	}

	if len(cfg.Program) != 0 {
		err = emu.Assemble(strings.NewReader(cfg.Program))
	}

	return
}

// apply writes the initial contents. The caller must hold the CPU lock.
func (in Init) apply(cp *cpu.Cpu, display *visual.Display) (err error) {
	for _, entry := range in.Register {
		err = entry.apply(cp, display)
		if err != nil {
			err = &ErrEntry{Name: entry.Name, Err: err}
			return
		}
	}

	for _, entry := range in.Memory {
		vt := visual.VALUE_U32
		if len(entry.Type) != 0 {
			vt, err = visual.ParseValueType(entry.Type)
			if err != nil {
				return
			}
		}

		var data []uint8
		data, err = encode(vt, entry.Values)
		if err != nil {
			err = &ErrEntry{Name: f("memory %#x", entry.Address), Err: err}
			return
		}
		cp.Memory.WriteBytes(entry.Address, data)
	}

	return
}

func (entry Register) apply(cp *cpu.Cpu, display *visual.Display) (err error) {
	reg, err := cpu.ParseRegister(entry.Name)
	if err != nil {
		return
	}

	if reg.IsGpr() {
		if len(entry.Values) != 1 {
			err = ErrLaneCount
			return
		}
		word, ok := toWord(entry.Values[0])
		if !ok {
			err = ErrLaneValue
			return
		}
		cp.SetGprValue(reg.Gpr, word)
		return
	}

	vt := display.TypeOf(reg)
	if len(entry.Type) != 0 {
		vt, err = visual.ParseValueType(entry.Type)
		if err != nil {
			return
		}
	}

	data, err := encode(vt, entry.Values)
	if err != nil {
		return
	}
	if len(data) > reg.Vec.Bytes() {
		err = ErrLaneCount
		return
	}

	view := make([]uint8, reg.Vec.Bytes())
	copy(view, data)
	return cp.SetVectorBytes(reg.Vec, reg.Index, view, true)
}

// encode packs values as little endian lanes of type vt.
func encode(vt visual.ValueType, values []any) (data []uint8, err error) {
	for _, item := range values {
		lane := make([]uint8, vt.Bytes())
		ok := false

		switch vt {
		case visual.VALUE_F32:
			var x float64
			x, ok = toFloat(item)
			binary.LittleEndian.PutUint32(lane, math.Float32bits(float32(x)))
		case visual.VALUE_F64:
			var x float64
			x, ok = toFloat(item)
			binary.LittleEndian.PutUint64(lane, math.Float64bits(x))
		case visual.VALUE_U8, visual.VALUE_U16, visual.VALUE_U32, visual.VALUE_U64:
			var word uint64
			word, ok = toWord(item)
			var buf [8]uint8
			binary.LittleEndian.PutUint64(buf[:], word)
			copy(lane, buf[:])
		default:
			var wide *uint256.Int
			wide, ok = toWide(item)
			if ok {
				be := wide.Bytes32()
				for n := range min(len(lane), len(be)) {
					lane[n] = be[len(be)-1-n]
				}
			}
		}

		if !ok {
			err = ErrLaneValue
			return
		}
		data = append(data, lane...)
	}

	return
}

func toFloat(item any) (x float64, ok bool) {
	switch v := item.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		var err error
		x, err = strconv.ParseFloat(v, 64)
		return x, err == nil
	}
	return
}

// toWord takes negative integers as two's complement, truncated to the lane.
func toWord(item any) (word uint64, ok bool) {
	switch v := item.(type) {
	case int64:
		return uint64(v), true
	case string:
		var err error
		word, err = strconv.ParseUint(v, 0, 64)
		return word, err == nil
	}
	return
}

func toWide(item any) (wide *uint256.Int, ok bool) {
	var err error
	switch v := item.(type) {
	case int64:
		if v < 0 {
			return
		}
		return uint256.NewInt(uint64(v)), true
	case string:
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
			wide, err = uint256.FromHex(v)
		} else {
			wide, err = uint256.FromDecimal(v)
		}
		return wide, err == nil
	}
	return
}

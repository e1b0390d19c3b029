package machofmt

import (
	"bytes"
	"debug/macho"
	"encoding/binary"
	"testing"
)

// buildTextSegment constructs the raw bytes of a minimal 64-bit
// __TEXT segment_command_64 carrying a single __stubs section, with the
// given indirect-symbol-table start index and per-stub stride.
func buildTextSegment(firstIndirect, stubStride uint32) *macho.Segment {
	buf := &bytes.Buffer{}
	writeName := func(name string) {
		var raw [16]byte
		copy(raw[:], name)
		buf.Write(raw[:])
	}

	// segment_command_64
	binary.Write(buf, binary.LittleEndian, uint32(0x19)) // LC_SEGMENT_64
	binary.Write(buf, binary.LittleEndian, uint32(segmentCommand64Len+section64Len))
	writeName("__TEXT")
	binary.Write(buf, binary.LittleEndian, uint64(0))       // vmaddr
	binary.Write(buf, binary.LittleEndian, uint64(0x1000))  // vmsize
	binary.Write(buf, binary.LittleEndian, uint64(0))       // fileoff
	binary.Write(buf, binary.LittleEndian, uint64(0x1000))  // filesize
	binary.Write(buf, binary.LittleEndian, uint32(5))       // maxprot
	binary.Write(buf, binary.LittleEndian, uint32(5))       // initprot
	binary.Write(buf, binary.LittleEndian, uint32(1))       // nsects
	binary.Write(buf, binary.LittleEndian, uint32(0))       // flags

	// section_64 "__stubs"
	writeName("__stubs")
	writeName("__TEXT")
	binary.Write(buf, binary.LittleEndian, uint64(0x2000)) // addr
	binary.Write(buf, binary.LittleEndian, uint64(stubStride*2))
	binary.Write(buf, binary.LittleEndian, uint32(0)) // offset
	binary.Write(buf, binary.LittleEndian, uint32(0)) // align
	binary.Write(buf, binary.LittleEndian, uint32(0)) // reloff
	binary.Write(buf, binary.LittleEndian, uint32(0)) // nreloc
	binary.Write(buf, binary.LittleEndian, uint32(0)) // flags
	binary.Write(buf, binary.LittleEndian, firstIndirect)
	binary.Write(buf, binary.LittleEndian, stubStride)
	binary.Write(buf, binary.LittleEndian, uint32(0)) // reserved3

	return &macho.Segment{
		LoadBytes: macho.LoadBytes(buf.Bytes()),
		SegmentHeader: macho.SegmentHeader{
			Cmd:  0x19,
			Name: "__TEXT",
			Prot: 5,
		},
	}
}

func TestNewSymbolizerResolvesStubAddresses(t *testing.T) {
	seg := buildTextSegment(10, 6)
	file := &macho.File{
		Loads: []macho.Load{seg},
		Sections: []*macho.Section{
			{SectionHeader: macho.SectionHeader{Name: "__stubs", Seg: "__TEXT", Addr: 0x2000, Size: 12}},
		},
		Dysymtab: &macho.Dysymtab{
			IndirectSyms: []uint32{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 4},
		},
		Symtab: &macho.Symtab{
			Syms: []macho.Symbol{
				{Name: "_sym0"},
				{Name: "_sym1"},
				{Name: "_sym2"},
				{Name: "_puts"},
				{Name: "_malloc"},
			},
		},
	}
	l := NewLoader(file, 0)
	s := NewSymbolizer(l)

	name, ok := s.FindExternalFunctionAt(0x2000)
	if !ok || name != "_puts" {
		t.Errorf("FindExternalFunctionAt(0x2000) = %q, %v, want _puts, true", name, ok)
	}
	name, ok = s.FindExternalFunctionAt(0x2006)
	if !ok || name != "_malloc" {
		t.Errorf("FindExternalFunctionAt(0x2006) = %q, %v, want _malloc, true", name, ok)
	}
	if _, ok := s.FindExternalFunctionAt(0x3000); ok {
		t.Errorf("FindExternalFunctionAt(0x3000) reported a match outside the stubs table")
	}
}

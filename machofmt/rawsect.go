package machofmt

import (
	"bytes"
	"debug/macho"
	"encoding/binary"
)

// segmentCommand64Len and section64Len are sizeof(struct
// segment_command_64) and sizeof(struct section_64) from <mach-o/loader.h>.
const (
	segmentCommand64Len = 72
	section64Len        = 80
)

// rawSectionReserved scans every 64-bit segment load command's raw bytes
// for a section named name, returning its reserved1 and reserved2 fields.
// The standard library's debug/macho parses these into neither
// SectionHeader nor any other exported field, so they are read directly
// from the load command, the same way Entrypoint reads LC_MAIN (spec.md
// §4.G): reserved1 is the section's first indirect symbol table index and
// reserved2 is its per-entry stride, needed to resolve __stubs entries to
// imported symbol names.
func rawSectionReserved(l *Loader, name string) (reserved1, reserved2 uint32, ok bool) {
	for _, ld := range l.File.Loads {
		seg, isSeg := ld.(*macho.Segment)
		if !isSeg {
			continue
		}
		raw := seg.Raw()
		if len(raw) < segmentCommand64Len {
			continue
		}
		nsects := binary.LittleEndian.Uint32(raw[64:68])
		off := segmentCommand64Len
		for i := uint32(0); i < nsects; i++ {
			if off+section64Len > len(raw) {
				break
			}
			sect := raw[off : off+section64Len]
			if cstring16(sect[0:16]) == name {
				reserved1 = binary.LittleEndian.Uint32(sect[68:72])
				reserved2 = binary.LittleEndian.Uint32(sect[72:76])
				return reserved1, reserved2, true
			}
			off += section64Len
		}
	}
	return 0, 0, false
}

func cstring16(b []byte) string {
	if i := bytes.IndexByte(b, 0); i != -1 {
		return string(b[:i])
	}
	return string(b)
}

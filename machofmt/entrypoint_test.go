package machofmt

import (
	"bytes"
	"debug/macho"
	"encoding/binary"
	"testing"
)

func TestEntrypointFromLCMain(t *testing.T) {
	textSeg := buildTextSegment(0, 0)

	lcMain := &bytes.Buffer{}
	binary.Write(lcMain, binary.LittleEndian, uint32(loadCmdMain))
	binary.Write(lcMain, binary.LittleEndian, uint32(entryPointCmdLen))
	binary.Write(lcMain, binary.LittleEndian, uint64(0x50)) // entryoff
	binary.Write(lcMain, binary.LittleEndian, uint64(0))    // stacksize

	file := &macho.File{
		Loads: []macho.Load{textSeg, macho.LoadBytes(lcMain.Bytes())},
	}
	l := NewLoader(file, 0x100000)

	addr, ok := l.Entrypoint()
	if !ok {
		t.Fatalf("Entrypoint() reported no entrypoint")
	}
	if want := l.Effective(0x50); addr != want {
		t.Errorf("Entrypoint() = %v, want %v", addr, want)
	}
}

func TestEntrypointFallsBackToMainSymbol(t *testing.T) {
	file := &macho.File{
		Symtab: &macho.Symtab{
			Syms: []macho.Symbol{{Name: "_main", Value: 0x4000}},
		},
	}
	l := NewLoader(file, 0)
	addr, ok := l.Entrypoint()
	if !ok || addr != 0x4000 {
		t.Errorf("Entrypoint() = %v, %v, want 0x4000, true", addr, ok)
	}
}

package x86

import "golang.org/x/arch/x86/x86asm"

// Decoder wraps golang.org/x/arch/x86/x86asm with a Cache (spec.md §6's
// "decoder for the target architecture" external collaborator, specialized
// to x86-64).
type Decoder struct {
	// Cache amortizes decode cost across repeated byte sequences.
	Cache *Cache
	// Mode is the x86asm processor mode (x86asm.Mode64 for 64-bit Mach-O).
	Mode int
}

// NewDecoder returns a decoder operating in the given x86asm mode, backed by
// a fresh decode cache.
func NewDecoder(mode int) *Decoder {
	return &Decoder{Cache: NewCache(), Mode: mode}
}

// Decode decodes the instruction at the head of data, consulting the cache
// first. It reports the decoded instruction, the number of bytes consumed,
// and whether decoding succeeded. On failure, the returned size is the
// number of bytes the caller should skip as invalid data (spec.md §6).
func (d *Decoder) Decode(data []byte) (x86asm.Inst, int, bool) {
	if inst, n, ok := d.Cache.FindCachedInstruction(data); ok {
		d.Cache.Uniqued++
		return inst, n, true
	}
	inst, err := x86asm.Decode(data, d.Mode)
	if err != nil {
		n := inst.Len
		if n <= 0 {
			n = 1
		}
		return inst, n, false
	}
	d.Cache.Translated++
	d.Cache.AddTempInstruction(data[:inst.Len], inst)
	return inst, inst.Len, true
}

package machofmt

import (
	"encoding/binary"

	"github.com/mewmew/objtrans/bin"
	"github.com/pkg/errors"
)

// StaticInitFuncs decodes the __mod_init_func section as a packed array of
// 64-bit effective addresses (64-bit Mach-O only, spec.md §4.G).
func (l *Loader) StaticInitFuncs() ([]bin.Address, error) {
	return l.readFuncArray("__mod_init_func")
}

// StaticExitFuncs decodes the __mod_exit_func section as a packed array of
// 64-bit effective addresses (64-bit Mach-O only, spec.md §4.G).
func (l *Loader) StaticExitFuncs() ([]bin.Address, error) {
	return l.readFuncArray("__mod_exit_func")
}

func (l *Loader) readFuncArray(name string) ([]bin.Address, error) {
	if !l.Is64Bit() {
		return nil, nil
	}
	sect := l.File.Section(name)
	if sect == nil {
		return nil, nil
	}
	data, err := sect.Data()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(data)%8 != 0 {
		return nil, errors.Errorf("%s: size %d is not a multiple of 8", name, len(data))
	}
	addrs := make([]bin.Address, 0, len(data)/8)
	for i := 0; i+8 <= len(data); i += 8 {
		raw := binary.LittleEndian.Uint64(data[i : i+8])
		addrs = append(addrs, l.Effective(bin.Address(raw)))
	}
	return addrs, nil
}

package cfg

import (
	"github.com/mewmew/objtrans/bin"
	"github.com/mewmew/objtrans/module"
	"github.com/pkg/errors"
)

// CreateFunction binds beginAddr to a function, reconciling external
// (PLT/stub) symbols before attempting CFG recovery (spec.md §4.E).
func (b *Builder) CreateFunction(beginAddr bin.Address, callTargets, tailCallTargets *[]bin.Address) (*module.Function, error) {
	original := b.toOriginal(beginAddr)
	if name, ok := b.resolveExternal(original); ok {
		f := module.NewExternalFunction(beginAddr, name)
		b.Module.AddFunction(f)
		return f, nil
	}
	if f, ok := b.Module.FindFunctionAt(beginAddr); ok {
		return f, nil
	}
	f := module.NewFunction(beginAddr)
	b.Module.AddFunction(f)
	if _, err := b.GetBasicBlockAt(f, beginAddr, callTargets, tailCallTargets); err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

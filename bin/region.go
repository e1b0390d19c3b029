package bin

import "sort"

// Region is a contiguous range [Base, Base+len(Data)) of loaded bytes backed
// by the contents of one object-file section.
//
// Regions are disjoint and kept sorted by Base inside a RegionMap.
type Region struct {
	// Base is the effective address of the first byte of the region.
	Base Address
	// Data is the read-only byte view of the region.
	Data []byte
	// Name is the owning section's name, used to seed atom names.
	Name string
}

// End returns the address one past the last byte of the region.
func (r Region) End() Address {
	return r.Base + Address(len(r.Data))
}

// Contains reports whether addr lies within [Base, End()).
func (r Region) Contains(addr Address) bool {
	return r.Base <= addr && addr < r.End()
}

// BytesAt returns the bytes of the region starting at addr, or nil if addr
// does not lie within the region.
func (r Region) BytesAt(addr Address) []byte {
	if !r.Contains(addr) {
		return nil
	}
	return r.Data[addr-r.Base:]
}

// RegionMap is an ordered collection of disjoint regions, plus an optional
// fallback region used to satisfy queries outside any known section. It
// implements component A of the object disassembler (spec.md §4.A).
type RegionMap struct {
	regions  []Region
	fallback *Region
}

// Insert adds a region backed by data starting at base. Insert does not
// check for overlap with previously inserted regions; callers are expected
// to insert once at module construction from disjoint object-file sections.
func (m *RegionMap) Insert(base Address, data []byte, name string) {
	m.regions = append(m.regions, Region{Base: base, Data: data, Name: name})
	sort.Slice(m.regions, func(i, j int) bool { return m.regions[i].Base < m.regions[j].Base })
}

// SetFallback installs a fallback region returned by RegionFor when no
// inserted region contains the queried address.
func (m *RegionMap) SetFallback(base Address, data []byte, name string) {
	m.fallback = &Region{Base: base, Data: data, Name: name}
}

// RegionFor returns the region containing addr, and reports whether one was
// found (in a known section, or the fallback region).
//
// Lookup uses a binary search over region end addresses, then confirms that
// the candidate region's base is at or before addr, per spec.md §4.A.
func (m *RegionMap) RegionFor(addr Address) (Region, bool) {
	i := sort.Search(len(m.regions), func(i int) bool {
		return m.regions[i].End() > addr
	})
	if i < len(m.regions) && m.regions[i].Base <= addr {
		return m.regions[i], true
	}
	if m.fallback != nil && m.fallback.Contains(addr) {
		return *m.fallback, true
	}
	return Region{}, false
}

// Regions returns the inserted regions in ascending base order. The
// fallback region, if any, is not included.
func (m *RegionMap) Regions() []Region {
	return m.regions
}

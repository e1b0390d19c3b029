package main

import (
	"github.com/mewkiz/pkg/jsonutil"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewmew/objtrans/bin"
	"github.com/pkg/errors"
)

// loadSidecarAddrs parses an optional JSON sidecar file of extra function
// addresses the object file's own symbol table lacks (spec.md §9's
// supplemented "extra functions" feature). A missing or empty path is not
// an error: it simply yields no extra addresses, matching the teacher's
// parseJSON "file not found is a warning, not a failure" convention.
func loadSidecarAddrs(jsonPath string) ([]bin.Address, error) {
	if jsonPath == "" {
		return nil, nil
	}
	if !osutil.Exists(jsonPath) {
		warn.Printf("unable to locate JSON sidecar %q", jsonPath)
		return nil, nil
	}
	dbg.Printf("loadSidecarAddrs(jsonPath = %q)", jsonPath)
	var addrs bin.Addrs
	if err := jsonutil.ParseFile(jsonPath, &addrs); err != nil {
		return nil, errors.WithStack(err)
	}
	return addrs, nil
}

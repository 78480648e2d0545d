package main

import (
	"fmt"
	"os"

	"github.com/snomedql/ecl/internal/memstore"
)

func openStore(path string) (*memstore.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("--store is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", path, err)
	}
	defer f.Close()

	s, err := memstore.ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("reading store %q: %w", path, err)
	}
	return s, nil
}

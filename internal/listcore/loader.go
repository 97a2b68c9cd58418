package listcore

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Source is one fetch in a load pass. Fetch stores its own result; the loader
// only cares whether it failed.
type Source struct {
	Name    string
	Primary bool
	Fetch   func(ctx context.Context) error
}

// LoadReport is the settled outcome of a load pass.
type LoadReport struct {
	Errors  map[string]error
	primary map[string]bool
}

// Failed reports whether the named source failed.
func (r LoadReport) Failed(name string) bool {
	return r.Errors[name] != nil
}

// PrimaryFailed reports whether any primary source failed.
func (r LoadReport) PrimaryFailed() bool {
	for name, err := range r.Errors {
		if err != nil && r.primary[name] {
			return true
		}
	}
	return false
}

// PrimaryErr returns the first primary failure, or nil.
func (r LoadReport) PrimaryErr() error {
	for name, err := range r.Errors {
		if err != nil && r.primary[name] {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load runs every source concurrently and waits for all of them. A failing
// source never cancels the others.
func Load(ctx context.Context, sources ...Source) LoadReport {
	report := LoadReport{
		Errors:  make(map[string]error, len(sources)),
		primary: make(map[string]bool, len(sources)),
	}
	var mu sync.Mutex
	var g errgroup.Group
	for _, src := range sources {
		src := src
		report.primary[src.Name] = src.Primary
		g.Go(func() error {
			err := src.Fetch(ctx)
			if err != nil {
				mu.Lock()
				report.Errors[src.Name] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}

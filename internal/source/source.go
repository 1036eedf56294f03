// Package source defines the port to a hospital record system and the
// adapters that implement it. Adapters return untyped raw records; the
// normalize package is the only place those shapes are interpreted.
package source

import (
	"context"

	"praisa/internal/patient/models"
	"praisa/internal/patient/normalize"
	dErrors "praisa/pkg/domain-errors"
)

// RecordSource is one hospital's record system. An empty Search result is a
// valid non-error outcome meaning "no match in this source"; transport or
// storage failures surface as CodeSourceUnavailable errors.
type RecordSource interface {
	// Search returns raw identity records matching the criteria, in the
	// source's own deterministic order.
	Search(ctx context.Context, criteria models.SearchCriteria) ([]normalize.Raw, error)

	// GetIdentity returns one raw identity record, CodeNotFound if absent.
	GetIdentity(ctx context.Context, identityID string) (normalize.Raw, error)

	// GetVisits returns the raw visit rows for an identity, newest first.
	GetVisits(ctx context.Context, identityID string) ([]normalize.Raw, error)
}

// Directory resolves a source ID to its RecordSource. Built once at startup,
// read-only afterwards.
type Directory struct {
	sources map[string]RecordSource
}

// NewDirectory builds an empty directory.
func NewDirectory() *Directory {
	return &Directory{sources: make(map[string]RecordSource)}
}

// Register attaches a RecordSource to a source ID.
func (d *Directory) Register(sourceID string, src RecordSource) {
	d.sources[sourceID] = src
}

// For returns the RecordSource for a source ID.
func (d *Directory) For(sourceID string) (RecordSource, error) {
	src, ok := d.sources[sourceID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeSourceUnavailable, "no record source registered for %q", sourceID)
	}
	return src, nil
}

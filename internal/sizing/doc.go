// internal/sizing/doc.go

// Package sizing sizes an off-grid solar water-pumping installation.
//
// The chain is single pass and deterministic:
//
//	energy demand -> irradiation -> storage -> generation target -> components -> financials
//
// Catalog, financial assumptions and the irradiation lookup are injected by
// the caller; the package performs no I/O of its own.
package sizing

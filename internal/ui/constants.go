// Package ui provides shared UI constants and utilities.
package ui

// Layout constants for consistent sizing across panels.
const (
	// BorderHeight is the space consumed by a standard panel border, in
	// either direction.
	BorderHeight = 2

	// HeaderHeight is the space for header + separator in panels.
	HeaderHeight = 2

	// PanelOverhead is the total vertical overhead (border + header + separator).
	// listHeight = panelHeight - PanelOverhead
	PanelOverhead = BorderHeight + HeaderHeight
)

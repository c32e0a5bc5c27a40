// Package planio reads cutting problems and writes cutting plans in the
// line-oriented text format, and imports demand lists from XLSX or CSV.
package planio

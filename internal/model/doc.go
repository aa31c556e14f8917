// Package model defines the values that flow between the UI components and
// the conversion service client: the selected file, palettes, processing
// options, the immutable request and the orchestrator's state.
package model

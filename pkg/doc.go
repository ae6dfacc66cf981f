// Package pkg provides the core libraries for ekgstore chart extraction.
//
// # Overview
//
// ekgstore digitizes printed ECG charts: it converts the chart PDF into an
// SVG vector tree, tells waveform paths apart from calibration markers and
// grid ink, reconstructs each lead as an absolute coordinate series, and
// scales it to physical units using the calibration pulse and the scale
// descriptors printed on the page. The pkg directory is organized into
// three main areas:
//
//  1. Extraction - svgdoc, trace, calibrate, waveform, metadata, extract
//  2. Infrastructure - inkscape, cache, config, errors, observability
//  3. Orchestration - pipeline (convert → extract), export
//
// # Architecture
//
// The typical data flow through ekgstore:
//
//	Chart PDF
//	     ↓ inkscape (cached by content hash)
//	SVG tree (svgdoc)
//	     ↓ metadata.Classify        ↓ waveform.Locate
//	Record (validated)         traces + units (trace, calibrate)
//	     ↓ extract.Build
//	physically scaled leads
//	     ↓ export
//	CSV + annotations (and optionally MongoDB)
package pkg

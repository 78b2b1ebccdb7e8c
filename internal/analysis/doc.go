// Package analysis provides the frequency-domain helpers used by analysis
// modules and by tests: window generation, a reusable FFT power analyzer
// and a single-bin Goertzel detector.
package analysis

// Package taxengine turns document lines plus an ordered tax configuration
// into a reproducible breakdown of pre-tax amount, per-tax amounts and final
// payable amount.
//
// The engine is a pure computation layer: it performs no I/O, never mutates
// the configuration it is given, and recomputes everything from scratch on
// each call. Amounts are integer cents; rates are percentages (19 means 19%).
// Rounding happens exactly once per computed amount so re-running the same
// inputs in the same rule order always yields identical results.
package taxengine

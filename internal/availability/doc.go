// Package availability converts busy intervals into free slots.
//
// Normalize groups intervals by weekday, sorts them stably by start and sweeps
// a cursor across the day window, emitting a free slot for every gap. The
// resulting Catalog is owned by the application service and recomputed
// whenever the schedule changes.
package availability

// Package focus implements the focus session state machine and the passive
// watch tracker. Both share one active slot: at most one of them is open.
//
// Elapsed time is always derived from timestamps. The minute ticker only
// decides when to look at the clock; it never decides how many minutes passed.
package focus

// Package app provides the application service layer.
//
// Service owns the user's state: profile, schedule and free-slot catalog, the
// focus session machine and the ledger. HTTP handlers call it; it calls the
// stores and providers through domain interfaces. MinuteTicker drives the
// per-minute accrual while a focus session runs.
package app

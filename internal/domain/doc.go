// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (schedule.go, session.go, ledger.go, snapshot.go, provider.go)
// hold the shared types and the contracts the core consumes from its collaborators.
// Apart from small value helpers there is no implementation code here.
package domain

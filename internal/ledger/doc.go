// Package ledger keeps the accrual ledger of productive minutes and derives
// analytics from it on every read.
package ledger

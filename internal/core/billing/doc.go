// Package billing holds the billing ledger view-model: charge selection,
// invoice request assembly, transaction grouping, and the charge lifecycle.
// Nothing in this package performs I/O; callers fetch data from the billing
// backend and send the requests built here back to it.
package billing

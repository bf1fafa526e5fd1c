// Package orderbook implements the in-memory matching core for a
// single instrument. It maintains one price-indexed FIFO book per
// side, matches incoming orders under strict price-time priority,
// and emits trades at the maker's price.
//
// The book is a single-writer structure: one logical feed of orders
// per instance, no internal locking. Durability, transport, and
// sequencing live outside this package and are injected where
// needed.
package orderbook

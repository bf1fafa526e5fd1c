// Package service coordinates the matching core with durability and
// publication. OrderService is the only write entry point: every
// order passes through the WAL before it touches the book, and every
// trade lands in the outbox before anything downstream sees it.
package service

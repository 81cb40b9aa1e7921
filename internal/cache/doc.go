// Package cache implements the two-tier speech cache: a byte-budgeted
// in-memory LRU store in front of a persistent disk store, both addressed
// by a 32-bit fingerprint of the spoken text. The Manager coordinates the
// lookup chain, disk-to-RAM promotion, and the capture/commit protocol
// that keeps interrupted syntheses out of both tiers.
package cache

// Package conflict decides whether reservations of one shared resource collide.
//
// Overlap math is symmetric: two windows conflict when they intersect or when
// the gap between them is shorter than the required buffer. The meaning of a
// conflict is not symmetric: it depends on the confirmation state of both
// reservations, see Pairing.
//
// Every function in this package is pure. Analyzers re-derive their verdict from
// the snapshot they are handed and keep no state between calls.
package conflict

// Package variation enumerates every way to split an integer budget across
// the five ordered slots of a domain.Stats tuple.
//
// Each produced tuple sums exactly to the budget and keeps every slot within
// [minimum, ceiling]. The search fixes slots in order and carries a running
// remainder, so candidate values above the remainder are never visited and
// the final slot is forced to whatever is left. Results come back in
// ascending lexicographic order.
//
//	vars, err := variation.Enumerate(100, domain.Stats{10, 10, 10, 10, 10})
package variation

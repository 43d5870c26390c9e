// Package domain defines the core types shared by every statvar package.
//
// This package contains pure domain logic with ZERO external dependencies outside the
// Go standard library. The types here describe slot bounds, variations, and the
// error model; the enumeration itself lives in package variation.
//
// The dependency direction is always:
//
//	Infrastructure → Domain (CORRECT)
//	Domain → Infrastructure (FORBIDDEN)
package domain

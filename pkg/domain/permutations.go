package domain

import "math"

// Attribute positions inside a permutation
const (
	dayAttribute = iota
	startAttribute
	roomAttribute
)

// constrainedPermutations enumerates every (day, start, room) combination that holds all the constraints,
// in lexicographic order with the day as the most significant attribute.
// Constraints must take into account that an attribute equal to math.MaxUint64 is not assigned yet, in which
// case they have to accept the partial permutation if their evaluation involves that attribute.
//
// Example:
//
//	permutations := constrainedPermutations([]uint64{days, starts, rooms}, []func(permutation []uint64) bool{
//		func(permutation []uint64) bool {
//			// Verify "permutation[roomAttribute] == math.MaxUint64", since the predicate relies on this index
//			return permutation[roomAttribute] == math.MaxUint64 || permutation[roomAttribute] == 1
//		},
//	})
func constrainedPermutations(domains []uint64, constraints []func(permutation []uint64) bool) [][]uint64 {
	capacity := uint64(1)
	permutation := make([]uint64, len(domains))
	for i, domain := range domains {
		capacity *= domain
		permutation[i] = math.MaxUint64
	}
	permutations := make([][]uint64, 0, capacity)
	expandPermutations(constraints, domains, 0, permutation, &permutations)
	return permutations
}

func expandPermutations(
	constraints []func(permutation []uint64) bool,
	domains []uint64,
	currentDomain int,
	permutation []uint64,
	permutations *[][]uint64) {

	if currentDomain >= len(domains) {
		permutationCopy := make([]uint64, len(permutation))
		copy(permutationCopy, permutation)
		*permutations = append(*permutations, permutationCopy)
		return
	}

	for i := uint64(0); i < domains[currentDomain]; i++ {
		permutation[currentDomain] = i
		constraintViolated := false
		for _, constraint := range constraints {
			if !constraint(permutation) {
				constraintViolated = true
				break
			}
		}

		if constraintViolated {
			continue
		}

		expandPermutations(constraints, domains, currentDomain+1, permutation, permutations)
	}

	permutation[currentDomain] = math.MaxUint64
}

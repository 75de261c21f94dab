package countdown

import "slices"

// PrimeSet is an ascending list of primes.
type PrimeSet []int64

// Contains reports whether n is in the set.
func (p PrimeSet) Contains(n int64) bool {
	_, found := slices.BinarySearch(p, n)
	return found
}

// Primes returns every prime below n. Candidates are odd numbers from 5 upward, tested by
// trial division against the odd primes found so far while p*p <= candidate.
func Primes(n int64) PrimeSet {
	primes := PrimeSet{}
	for _, seed := range []int64{2, 3} {
		if seed < n {
			primes = append(primes, seed)
		}
	}

	for candidate := int64(5); candidate < n; candidate += 2 {
		prime := true
		for _, p := range primes[1:] {
			if p*p > candidate {
				break
			}
			if candidate%p == 0 {
				prime = false
				break
			}
		}
		if prime {
			primes = append(primes, candidate)
		}
	}
	return primes
}

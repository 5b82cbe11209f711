// Package valgen provides closures that generate values, used by tests
// to build synthetic data vectors without hand-writing every element.
package valgen

func MakeConstGen(constant int) func() int {
	return func() int {
		return constant
	}
}

func MakeIncreasingGen(start int) func() int {
	current := start
	return func() int {
		current++
		return current
	}
}

// Take draws n values from gen in order.
func Take(n int, gen func() int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = gen()
	}
	return out
}

//go:build chainmap_assert || race

package opt

// Assert_ reports contract violations. Enabled under the chainmap_assert
// build tag and under the race detector; release builds compile it out, so
// callers must not rely on it for control flow.
const AssertEnabled_ = true

func Assert_(cond bool, msg string) {
	if !cond {
		panic("chainmap: assertion failed: " + msg)
	}
}

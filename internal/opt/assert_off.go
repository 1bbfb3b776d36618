//go:build !chainmap_assert && !race

package opt

const AssertEnabled_ = false

//go:nosplit
func Assert_(bool, string) {
}

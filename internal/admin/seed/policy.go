package seed

// ShouldSeed reports whether a seeding pass for one kind runs. A populated
// store is only seeded again when forced.
func ShouldSeed(storeIsEmpty, force bool) bool {
	return force || storeIsEmpty
}

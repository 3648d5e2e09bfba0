package sysmetrics

// FSStat is the subset of a statfs result needed for usage: the fragment
// size and the total and available block counts.
type FSStat struct {
	BlockSize uint64
	Blocks    uint64
	Available uint64
}

// StatFunc performs a statfs-like query on a mount path.
type StatFunc func(path string) (FSStat, error)

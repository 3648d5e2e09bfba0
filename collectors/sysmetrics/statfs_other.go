//go:build !linux

package sysmetrics

func statfs(path string) (FSStat, error) {
	return statfsUsage(path)
}

// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlsig

// CacheLen returns the number of statements cached by a, or -1 when caching
// is disabled.
func (a *Analyzer) CacheLen() int {
	if a.cache == nil {
		return -1
	}
	return a.cache.len()
}

func DefaultAnalyzer() *Analyzer {
	return defaultAnalyzer
}

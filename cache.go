// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlsig

import (
	"sync"
)

// statementCache maps SQL text to the Statement prepared from it. Statements
// are immutable so a cached Statement is handed out to every caller
// preparing the same text.
//
// The mutex must be held when accessing stmts.
type statementCache struct {
	stmts map[string]*Statement
	mutex sync.RWMutex
}

func newStatementCache() *statementCache {
	return &statementCache{stmts: map[string]*Statement{}}
}

// lookup returns the Statement prepared from sql, if any.
func (sc *statementCache) lookup(sql string) (*Statement, bool) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	s, ok := sc.stmts[sql]
	return s, ok
}

// store adds s to the cache and returns the cached Statement for its SQL
// text. That is s unless another caller stored the same text first.
func (sc *statementCache) store(s *Statement) *Statement {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	// Check if a statement has been inserted by someone else since the
	// caller last looked.
	if alt, ok := sc.stmts[s.sql]; ok {
		return alt
	}
	sc.stmts[s.sql] = s
	return s
}

// len returns the number of cached statements.
func (sc *statementCache) len() int {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return len(sc.stmts)
}

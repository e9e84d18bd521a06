// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlsig

import (
	"fmt"
	"sync"
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func TestPackage(t *testing.T) { TestingT(t) }

type CacheSuite struct{}

var _ = Suite(&CacheSuite{})

func (s *CacheSuite) TestStoreKeepsFirst(c *C) {
	sc := newStatementCache()
	first := &Statement{sql: "SELECT 1::int4"}
	second := &Statement{sql: "SELECT 1::int4"}

	_, ok := sc.lookup(first.sql)
	c.Assert(ok, Equals, false)

	c.Assert(sc.store(first), Equals, first)
	c.Assert(sc.store(second), Equals, first)

	got, ok := sc.lookup(first.sql)
	c.Assert(ok, Equals, true)
	c.Assert(got, Equals, first)
	c.Assert(sc.len(), Equals, 1)
}

func (s *CacheSuite) TestPrepareCaches(c *C) {
	a := NewAnalyzer()
	s1, err := a.Prepare("SELECT $1::int4")
	c.Assert(err, IsNil)
	s2, err := a.Prepare("SELECT $1::int4")
	c.Assert(err, IsNil)
	c.Assert(s2, Equals, s1)
	c.Assert(a.cache.len(), Equals, 1)

	// Differently written statements are cached separately.
	s3, err := a.Prepare("select $1::int4")
	c.Assert(err, IsNil)
	c.Assert(s3, Not(Equals), s1)
	c.Assert(a.cache.len(), Equals, 2)
}

func (s *CacheSuite) TestRejectedStatementsAreNotCached(c *C) {
	a := NewAnalyzer()
	_, err := a.Prepare("SELECT $1")
	c.Assert(err, NotNil)
	c.Assert(a.cache.len(), Equals, 0)
}

func (s *CacheSuite) TestAnalyzeDoesNotCache(c *C) {
	a := NewAnalyzer()
	first := a.MustPrepare("SELECT 1::int4")
	_, err := a.Analyze(first.SQL(), first.AST())
	c.Assert(err, IsNil)
	c.Assert(a.cache.len(), Equals, 1)
}

func (s *CacheSuite) TestWithoutCache(c *C) {
	a := NewAnalyzer(WithoutCache())
	c.Assert(a.cache, IsNil)
	s1 := a.MustPrepare("SELECT $1::int4")
	s2 := a.MustPrepare("SELECT $1::int4")
	c.Assert(s2, Not(Equals), s1)
}

func (s *CacheSuite) TestConcurrentPrepare(c *C) {
	a := NewAnalyzer()
	const n = 32
	stmts := make([]*Statement, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stmts[i], errs[i] = a.Prepare("SELECT id::int8 FROM person WHERE name = $1::text")
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		c.Assert(errs[i], IsNil)
		c.Assert(stmts[i], Equals, stmts[0])
	}
	c.Assert(a.cache.len(), Equals, 1)
}

func (s *CacheSuite) TestConcurrentPrepareDistinct(c *C) {
	a := NewAnalyzer()
	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sql := fmt.Sprintf("SELECT id::int8 FROM t%d WHERE id = $1::int8", i)
			for j := 0; j < 10; j++ {
				if _, err := a.Prepare(sql); err != nil {
					c.Error(err)
				}
			}
		}(i)
	}
	wg.Wait()
	c.Assert(a.cache.len(), Equals, n)
}

package sailfish

import (
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.

func TestCompilerIssues(t *testing.T) { TestingT(t) }

type IssueTestSuite struct{}

var _ = Suite(&IssueTestSuite{})

func (s *IssueTestSuite) TestConfigResolveOverridesOnlySetFields(c *C) {
	base := &Config{Delimiter: '%', Escape: true, RMWhitespace: false}
	newDelim := '$'
	override := &TemplateConfig{Delimiter: &newDelim}

	resolved := base.Resolve(override)
	c.Check(resolved.Delimiter, Equals, rune('$'))
	c.Check(resolved.Escape, Equals, true)
	c.Check(resolved.RMWhitespace, Equals, false)
}

func (s *IssueTestSuite) TestCacheLockSecondAcquireLoses(c *C) {
	dir := c.MkDir()
	lock := NewCacheLock(dir + "/artifact.go")

	won, err := lock.Acquire()
	c.Assert(err, IsNil)
	c.Check(won, Equals, true)

	second := NewCacheLock(dir + "/artifact.go")
	won2, err := second.Acquire()
	c.Assert(err, IsNil)
	c.Check(won2, Equals, false)
}

package protocol

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lepaul-HOU16/worldops/internal/domain"
)

// Response grammars vary between server versions; each family accepts every
// form observed in the wild and rejects everything else.
var (
	fillPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^Successfully filled (\d+) block`),
		regexp.MustCompile(`^Filled (\d+) block`),
	}
	gamerulePattern = regexp.MustCompile(`^Gamerule (\w+) is (?:currently|now) set to: (\S+)`)
	timePatterns    = []*regexp.Regexp{
		regexp.MustCompile(`^Set the time to (\d+)`),
		regexp.MustCompile(`^The time is (\d+)`),
	}
)

// FillParser parses fill-family responses into a changed-cell count.
type FillParser struct{}

// Parse returns the number of cells the server reports changed. "No blocks
// were filled" is a valid zero, not an error: filling an already-converged
// region is how idempotent clears report success.
func (FillParser) Parse(line string) (int64, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "No blocks were filled") {
		return 0, nil
	}
	for _, p := range fillPatterns {
		if m := p.FindStringSubmatch(line); m != nil {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return 0, malformed("fill", line)
			}
			return n, nil
		}
	}
	return 0, malformed("fill", line)
}

// GameruleParser parses gamerule read-back responses into the rule's value.
type GameruleParser struct{}

// Parse returns the value the server reports for the queried rule.
func (GameruleParser) Parse(line string) (string, error) {
	if m := gamerulePattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		return m[2], nil
	}
	return "", malformed("gamerule", line)
}

// TimeParser parses time-family responses into a tick value. The set and
// query grammars differ; both are accepted.
type TimeParser struct{}

// Parse returns the tick value from a time set acknowledgement or query.
func (TimeParser) Parse(line string) (int64, error) {
	line = strings.TrimSpace(line)
	for _, p := range timePatterns {
		if m := p.FindStringSubmatch(line); m != nil {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return 0, malformed("time", line)
			}
			return n, nil
		}
	}
	return 0, malformed("time", line)
}

// ProbeParser parses conditional-probe responses into pass/fail.
type ProbeParser struct{}

// Parse reports whether the probe's condition held.
func (ProbeParser) Parse(line string) (bool, error) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "Test passed"):
		return true, nil
	case strings.HasPrefix(line, "Test failed"):
		return false, nil
	}
	return false, malformed("probe", line)
}

func malformed(family, line string) error {
	return fmt.Errorf("%w: unparseable %s response %q", domain.ErrProtocol, family, line)
}

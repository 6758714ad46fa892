// Package namefilter loads an ordered list of compiled regular expression
// patterns (positive and negative) and classifies node names as
// "interesting" (anthropocene markers): a name is interesting if some
// positive pattern matches and no negative pattern does.
package namefilter

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// Filter holds the compiled positive and negative patterns, in file order.
type Filter struct {
	positive []*regexp.Regexp
	negative []*regexp.Regexp
}

// Empty returns a Filter that matches nothing (Search always returns false).
// Used when no --pattern file is configured.
func Empty() *Filter {
	return &Filter{}
}

// Load reads a newline-delimited pattern file from r. Blank lines and lines
// starting with '#' are ignored. Lines starting with '!' are negative
// patterns; all others are positive patterns compiled as full regular
// expressions.
func Load(r io.Reader) (*Filter, error) {
	f := &Filter{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if strings.HasPrefix(trimmed, "!") {
			re, err := regexp.Compile(strings.TrimPrefix(trimmed, "!"))
			if err != nil {
				return nil, err
			}
			f.negative = append(f.negative, re)
			continue
		}

		re, err := regexp.Compile(trimmed)
		if err != nil {
			return nil, err
		}
		f.positive = append(f.positive, re)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// Search reports whether name is "interesting": at least one positive
// pattern matches and no negative pattern matches.
func (f *Filter) Search(name string) bool {
	matched := false
	for _, re := range f.positive {
		if re.MatchString(name) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, re := range f.negative {
		if re.MatchString(name) {
			return false
		}
	}
	return true
}

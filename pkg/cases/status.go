package cases

import (
	"fmt"
	"strings"

	textcases "golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the recorded outcome of a test case.
type Status string

const (
	Pass Status = "Pass"
	Fail Status = "Fail"
	Skip Status = "Skip"
)

// Statuses lists the closed set in report order.
var Statuses = []Status{Pass, Fail, Skip}

var titler = textcases.Title(language.English)

// Valid reports whether s is one of Pass, Fail, Skip.
func (s Status) Valid() bool {
	switch s {
	case Pass, Fail, Skip:
		return true
	}
	return false
}

// Next cycles Pass -> Fail -> Skip -> Pass. Unknown values restart at Pass.
func (s Status) Next() Status {
	switch s {
	case Pass:
		return Fail
	case Fail:
		return Skip
	}
	return Pass
}

// Prev cycles in the opposite direction to Next.
func (s Status) Prev() Status {
	switch s {
	case Pass:
		return Skip
	case Skip:
		return Fail
	}
	return Pass
}

// ParseStatus parses a status case-insensitively. An empty string is Pass.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Pass, nil
	}
	st := Status(titler.String(s))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q (want pass, fail, or skip)", s)
	}
	return st, nil
}

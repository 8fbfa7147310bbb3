package exam

import (
	"fmt"
	"strings"
)

// CareerPath is one of the three admission tracks.
type CareerPath string

const (
	PathA CareerPath = "A" // Ciencias
	PathB CareerPath = "B" // Humanidades
	PathC CareerPath = "C" // Ingeniería
)

// CareerPaths lists every path in reporting order.
var CareerPaths = [...]CareerPath{PathA, PathB, PathC}

// DisplayName returns the Spanish track name used in reports.
func (p CareerPath) DisplayName() string {
	switch p {
	case PathA:
		return "Ciencias"
	case PathB:
		return "Humanidades"
	case PathC:
		return "Ingeniería"
	default:
		return string(p)
	}
}

// Valid reports whether p is one of the three known paths.
func (p CareerPath) Valid() bool {
	return p == PathA || p == PathB || p == PathC
}

// ParseCareerPath accepts a path letter in any case.
func ParseCareerPath(s string) (CareerPath, error) {
	p := CareerPath(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown career path %q", s)
	}
	return p, nil
}

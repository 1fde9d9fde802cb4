// Package compliance maps a user's employment type and holiday region to the
// break rules that apply to a working day.
package compliance

import (
	"fmt"
	"strings"
)

type EmploymentType string

const (
	Employee   EmploymentType = "employee"
	Contractor EmploymentType = "contractor"
)

func ParseEmploymentType(value string) (EmploymentType, error) {
	switch EmploymentType(strings.ToLower(strings.TrimSpace(value))) {
	case "", Employee:
		return Employee, nil
	case Contractor:
		return Contractor, nil
	default:
		return "", fmt.Errorf("unsupported employment type: %q (supported: employee, contractor)", value)
	}
}

// RegionClass is the closed set of rule families. Holiday region tags are
// resolved into a class once, when the profile is built.
type RegionClass int

const (
	RegionDefault RegionClass = iota
	RegionGermany
	RegionUK
)

func (r RegionClass) String() string {
	switch r {
	case RegionGermany:
		return "germany"
	case RegionUK:
		return "uk"
	default:
		return "default"
	}
}

// ResolveRegion classifies a holiday region tag such as "de-by" or "en-uk".
func ResolveRegion(tag string) RegionClass {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	switch {
	case strings.HasPrefix(normalized, "de-"):
		return RegionGermany
	case normalized == "en-uk":
		return RegionUK
	default:
		return RegionDefault
	}
}

// Profile is the read-only part of the user record the calculator needs.
type Profile struct {
	EmploymentType EmploymentType
	Region         RegionClass
	RegionTag      string
}

func NewProfile(employmentType, regionTag string) (Profile, error) {
	kind, err := ParseEmploymentType(employmentType)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		EmploymentType: kind,
		Region:         ResolveRegion(regionTag),
		RegionTag:      strings.TrimSpace(regionTag),
	}, nil
}

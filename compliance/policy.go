package compliance

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity grades the advisory warning shown next to a day.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityYellow
	SeverityOrange
	SeverityRed
)

func (s Severity) String() string {
	switch s {
	case SeverityYellow:
		return "yellow"
	case SeverityOrange:
		return "orange"
	case SeverityRed:
		return "red"
	default:
		return "none"
	}
}

func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return SeverityNone, nil
	case "yellow":
		return SeverityYellow, nil
	case "orange":
		return SeverityOrange, nil
	case "red":
		return SeverityRed, nil
	default:
		return SeverityNone, fmt.Errorf("unknown severity %q", value)
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Evaluation is the single result both the deduction and the advisory
// severity are read from. Minutes throughout.
type Evaluation struct {
	RequiredBreak int
	DeductedBreak int
	Compliant     bool
	Severity      Severity
}

// Rule evaluates one region's break law for a day's gross and taken break.
type Rule interface {
	Evaluate(grossMinutes, takenBreakMinutes int) Evaluation
}

const (
	sixHours   = 6 * 60
	eightHours = 8 * 60
	nineHours  = 9 * 60
	tenHours   = 10 * 60
)

var (
	contractorRule Rule = contractor{}

	regionRules = map[RegionClass]Rule{
		RegionDefault: defaultRule{},
		RegionGermany: germany{},
		RegionUK:      unitedKingdom{},
	}
)

// RuleFor returns the rule of a profile. Contractors are exempt everywhere
// and unknown classes get the default rule.
func RuleFor(profile Profile) Rule {
	if profile.EmploymentType == Contractor {
		return contractorRule
	}
	if rule, ok := regionRules[profile.Region]; ok {
		return rule
	}
	return regionRules[RegionDefault]
}

func Evaluate(profile Profile, grossMinutes, takenBreakMinutes int) Evaluation {
	if grossMinutes < 0 {
		grossMinutes = 0
	}
	if takenBreakMinutes < 0 {
		takenBreakMinutes = 0
	}
	eval := RuleFor(profile).Evaluate(grossMinutes, takenBreakMinutes)
	if eval.DeductedBreak > grossMinutes {
		eval.DeductedBreak = grossMinutes
	}
	return eval
}

type contractor struct{}

func (contractor) Evaluate(int, int) Evaluation {
	return Evaluation{Compliant: true}
}

// germany follows ArbZG §4: 30 minutes beyond six hours, 45 beyond nine.
// Missing break time is deducted from the payable total.
type germany struct{}

func (germany) Evaluate(gross, taken int) Evaluation {
	eval := Evaluation{Compliant: true}
	switch {
	case gross > nineHours:
		eval.RequiredBreak = 45
	case gross > sixHours:
		eval.RequiredBreak = 30
	}
	if taken < eval.RequiredBreak {
		eval.DeductedBreak = eval.RequiredBreak - taken
		eval.Compliant = false
	}

	switch {
	case gross > tenHours:
		// ArbZG §3 daily maximum; advisory only, the deduction table has no cap.
		eval.Severity = SeverityRed
	case !eval.Compliant:
		eval.Severity = SeverityOrange
	case gross > eightHours:
		eval.Severity = SeverityYellow
	}
	return eval
}

// unitedKingdom flags a missing 20 minute rest break after six hours but
// never deducts.
type unitedKingdom struct{}

func (unitedKingdom) Evaluate(gross, taken int) Evaluation {
	eval := Evaluation{Compliant: true}
	if gross > sixHours {
		eval.RequiredBreak = 20
	}
	if gross > sixHours && taken < 20 {
		eval.Compliant = false
	}

	switch {
	case !eval.Compliant:
		eval.Severity = SeverityOrange
	case gross > tenHours:
		eval.Severity = SeverityYellow
	}
	return eval
}

// defaultRule only warns about extreme days without any break.
type defaultRule struct{}

func (defaultRule) Evaluate(gross, taken int) Evaluation {
	eval := Evaluation{Compliant: true}
	if gross > tenHours && taken == 0 {
		eval.Compliant = false
	}

	switch {
	case !eval.Compliant:
		eval.Severity = SeverityOrange
	case gross > tenHours:
		eval.Severity = SeverityYellow
	}
	return eval
}

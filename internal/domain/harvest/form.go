package harvest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/seedandbeyond/snb-harvest/internal/domain/refdata"
)

const defaultHangerCount = "18"

// Form is the mutable working record. Every field stays a string exactly
// as scanned or typed; derived fields are recomputed on each change the
// same way the handheld client did.
type Form struct {
	Tag                    string
	Item                   string
	AvailablePlants        string
	NumberOfPlants         string
	HarvestName            string
	Cart                   string
	CartWeight             string
	HangerType             string
	NumberOfHangers        string
	IndividualHangerWeight string
	HangerWeight           string
	GrossWeight            string
	NetWeight              string
	Location               string
}

// num parses a decimal field, NaN when it does not parse.
func num(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// numOr0 mirrors `parseFloat(x) || 0`.
func numOr0(s string) float64 {
	v := num(s)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func format2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Recalc re-enforces the two derivation invariants. Order matters: the
// hanger weight feeds the net weight.
func (f *Form) Recalc() {
	f.recalcHangerWeight()
	f.recalcNetWeight()
}

func (f *Form) recalcHangerWeight() {
	switch {
	case f.NumberOfHangers != "" && f.IndividualHangerWeight != "":
		n := num(f.NumberOfHangers)
		w := num(f.IndividualHangerWeight)
		if !math.IsNaN(n) && !math.IsNaN(w) && n > 0 && w > 0 {
			f.HangerWeight = format2(n * w)
		}
	case f.HangerType == "":
		f.HangerWeight = "0.00"
	case f.HangerWeight != "" && (f.NumberOfHangers == "" || numOr0(f.NumberOfHangers) <= 0):
		f.HangerWeight = ""
	}
}

func (f *Form) recalcNetWeight() {
	gross := numOr0(f.GrossWeight)
	if f.GrossWeight == "" || gross <= 0 {
		f.NetWeight = ""
		return
	}
	net := gross - numOr0(f.HangerWeight) - numOr0(f.CartWeight)
	if net >= 0 {
		f.NetWeight = format2(net)
	} else {
		f.NetWeight = "0.00"
	}
}

// SetGrossWeight sanitizes raw scale/keypad input before storing it.
func (f *Form) SetGrossWeight(text string) {
	f.GrossWeight = SanitizeDecimal(text)
	f.Recalc()
}

func (f *Form) SetNumberOfHangers(text string) {
	f.NumberOfHangers = text
	f.Recalc()
}

func (f *Form) SetIndividualHangerWeight(text string) {
	f.IndividualHangerWeight = text
	f.Recalc()
}

// SetNumberOfPlants accepts the text the way the handheld input did:
// empty clears, garbage and negatives are dropped, values above the
// available count are stored but flagged (ExceedsAvailable).
func (f *Form) SetNumberOfPlants(text string) bool {
	if text == "" {
		f.NumberOfPlants = text
		return true
	}
	v := num(text)
	if math.IsNaN(v) || v < 0 {
		return false
	}
	f.NumberOfPlants = text
	return true
}

// ExceedsAvailable reports whether the entered plant count is over the
// planner's available count. The field keeps the value; submit rejects it.
func (f *Form) ExceedsAvailable() bool {
	return f.NumberOfPlants != "" && numOr0(f.NumberOfPlants) > numOr0(f.AvailablePlants)
}

// ApplyCart installs a resolved cart and its tare weight.
func (f *Form) ApplyCart(c *refdata.Cart) {
	f.Cart = c.Name
	f.CartWeight = c.Weight.String()
	f.Recalc()
}

func (f *Form) ClearCart() {
	f.Cart = ""
	f.CartWeight = ""
	f.Recalc()
}

// ApplyHanger installs a resolved hanger type. The computed hanger weight
// is only reset when the type actually changed; the hanger count keeps
// its value or falls back to the default.
func (f *Form) ApplyHanger(h *refdata.Hanger) {
	if f.HangerType != h.Name {
		f.HangerWeight = ""
	}
	f.HangerType = h.Name
	f.IndividualHangerWeight = h.Weight.String()
	if f.NumberOfHangers == "" {
		f.NumberOfHangers = defaultHangerCount
	}
	f.Recalc()
}

// ClearHanger wipes the hanger fields after a failed resolve. keepCount
// preserves (or defaults) the hanger count, matching the empty-input
// path of the handheld form.
func (f *Form) ClearHanger(keepCount bool) {
	f.HangerType = ""
	f.IndividualHangerWeight = ""
	f.HangerWeight = ""
	if keepCount && f.NumberOfHangers == "" {
		f.NumberOfHangers = defaultHangerCount
	}
	f.Recalc()
}

func (f *Form) Reset() {
	*f = Form{}
}

// Validate runs the submit preconditions in their fixed order; the first
// violated rule wins and nothing else is checked.
func (f *Form) Validate() *ValidationError {
	plants := numOr0(f.NumberOfPlants)
	available := numOr0(f.AvailablePlants)

	switch {
	case plants > available:
		return &ValidationError{Field: "numberOfPlants", Message: fmt.Sprintf(
			"Number of plants (%s) cannot exceed available plants (%s)",
			trimFloat(plants), trimFloat(available))}
	case plants <= 0:
		return &ValidationError{Field: "numberOfPlants", Message: "Number of plants must be greater than 0"}
	case f.NumberOfPlants == "":
		return &ValidationError{Field: "numberOfPlants", Message: "Please enter No. of Plants"}
	case f.HarvestName == "":
		return &ValidationError{Field: "harvestName", Message: "Please enter Harvest Name"}
	case f.Cart == "":
		return &ValidationError{Field: "cart", Message: "Please Select Cart"}
	case f.HangerType == "":
		return &ValidationError{Field: "hangerType", Message: "Please Select Hanger Type"}
	case f.HangerType != "" && f.HangerWeight == "":
		return &ValidationError{Field: "hangerWeight", Message: "Please Select Hanger Weight"}
	case f.NumberOfHangers == "" || numOr0(f.NumberOfHangers) <= 0:
		return &ValidationError{Field: "numberOfHangers", Message: "Please enter Number of Hangers greater than 0"}
	case f.GrossWeight == "" || numOr0(f.GrossWeight) <= 0:
		return &ValidationError{Field: "grossWeight", Message: "Please enter gross weight greater than 0"}
	case f.Location == "":
		return &ValidationError{Field: "location", Message: "Please Select Drying Location"}
	case numOr0(f.NetWeight) <= 0:
		return &ValidationError{Field: "netWeight", Message: "Net weight must be greater than 0"}
	}
	return nil
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SanitizeDecimal normalizes keypad/scale input: digits and a single
// decimal point, at most two decimals, no superfluous leading zeros.
func SanitizeDecimal(text string) string {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if i := strings.Index(cleaned, "."); i != -1 {
		before := cleaned[:i]
		after := strings.ReplaceAll(cleaned[i+1:], ".", "")
		if len(after) > 2 {
			after = after[:2]
		}
		cleaned = before + "." + after
	}

	// Collapse a run of leading zeros to a single one.
	if len(cleaned) > 1 && cleaned[0] == '0' && cleaned[1] != '.' {
		cleaned = "0" + strings.TrimLeft(cleaned, "0")
	}

	if cleaned == "." {
		cleaned = "0."
	}
	return cleaned
}

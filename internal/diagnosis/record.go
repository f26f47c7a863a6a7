package diagnosis

import "fmt"

// Severity grades how damaging the identified disease is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SpreadRate grades how quickly the disease propagates between plants
type SpreadRate string

const (
	SpreadLow      SpreadRate = "low"
	SpreadModerate SpreadRate = "moderate"
	SpreadHigh     SpreadRate = "high"
)

// Record is the structured diagnosis extracted from a model reply. List
// fields keep the model's ordering; it is the display order.
type Record struct {
	DiseaseName    string     `json:"diseaseName"`
	ScientificName string     `json:"scientificName"`
	Confidence     int        `json:"confidence"`
	Severity       Severity   `json:"severity"`
	Description    string     `json:"description"`
	Symptoms       []string   `json:"symptoms"`
	Causes         []string   `json:"causes"`
	Treatment      []string   `json:"treatment"`
	Prevention     []string   `json:"prevention"`
	AffectedParts  []string   `json:"affectedParts"`
	SpreadRate     SpreadRate `json:"spreadRate"`
}

func (s Severity) valid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func (s SpreadRate) valid() bool {
	switch s {
	case SpreadLow, SpreadModerate, SpreadHigh:
		return true
	}
	return false
}

// Validate checks the record against the schema every successful analysis
// must satisfy. A record failing any constraint is never returned to a
// caller as success.
func (r *Record) Validate() error {
	if r.DiseaseName == "" {
		return fmt.Errorf("diseaseName is empty")
	}
	if r.ScientificName == "" {
		return fmt.Errorf("scientificName is empty")
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		return fmt.Errorf("confidence %d outside 0..100", r.Confidence)
	}
	if !r.Severity.valid() {
		return fmt.Errorf("severity %q not in {low, moderate, high, critical}", r.Severity)
	}
	if r.Description == "" {
		return fmt.Errorf("description is empty")
	}
	for _, f := range []struct {
		name string
		list []string
	}{
		{"symptoms", r.Symptoms},
		{"causes", r.Causes},
		{"treatment", r.Treatment},
		{"prevention", r.Prevention},
		{"affectedParts", r.AffectedParts},
	} {
		// absent field decodes to a nil slice; an explicit empty array is
		// present and acceptable
		if f.list == nil {
			return fmt.Errorf("%s is missing", f.name)
		}
	}
	if !r.SpreadRate.valid() {
		return fmt.Errorf("spreadRate %q not in {low, moderate, high}", r.SpreadRate)
	}
	return nil
}

// Clone returns an independent copy, so a held record cannot be mutated
// through slices shared with callers
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Symptoms = append([]string(nil), r.Symptoms...)
	cp.Causes = append([]string(nil), r.Causes...)
	cp.Treatment = append([]string(nil), r.Treatment...)
	cp.Prevention = append([]string(nil), r.Prevention...)
	cp.AffectedParts = append([]string(nil), r.AffectedParts...)
	return &cp
}

package pii

// Type identifies a category of personally identifiable information.
type Type string

const (
	TypeEmail      Type = "email"
	TypePhone      Type = "phone"
	TypeSSN        Type = "ssn"
	TypeCreditCard Type = "credit_card"
	TypeIPAddress  Type = "ip_address"
	TypeURL        Type = "url"
)

// AllTypes lists every supported PII type in detection priority order.
// Earlier entries win overlap ties against later ones.
var AllTypes = []Type{
	TypeSSN,
	TypeCreditCard,
	TypeEmail,
	TypePhone,
	TypeIPAddress,
	TypeURL,
}

var displayNames = map[Type]string{
	TypeEmail:      "Email Address",
	TypePhone:      "Phone Number",
	TypeSSN:        "Social Security Number",
	TypeCreditCard: "Credit Card Number",
	TypeIPAddress:  "IP Address",
	TypeURL:        "URL",
}

// DisplayName returns the human-readable name used in audit reports.
func (t Type) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// Priority returns the overlap tie-break rank of the type; lower is stronger.
func (t Type) Priority() int {
	for i, candidate := range AllTypes {
		if candidate == t {
			return i
		}
	}
	return len(AllTypes)
}

// Match is a located, typed, confidence-scored span of PII within a text.
// Start and End are byte offsets into the original string, half-open.
type Match struct {
	Type       Type    `json:"type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Value      string  `json:"-"` // never serialize the raw match
	Confidence float64 `json:"confidence"`
}

// Overlaps reports whether two spans share at least one byte.
func (m Match) Overlaps(other Match) bool {
	return m.Start < other.End && other.Start < m.End
}

// TypeSet is a set of PII types, used for allow-lists and result summaries.
type TypeSet map[Type]bool

// NewTypeSet builds a set from the given types.
func NewTypeSet(types ...Type) TypeSet {
	set := make(TypeSet, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// Contains reports membership; a nil set contains nothing.
func (s TypeSet) Contains(t Type) bool {
	return s[t]
}

// Sorted returns the members in detection priority order.
func (s TypeSet) Sorted() []Type {
	out := make([]Type, 0, len(s))
	for _, t := range AllTypes {
		if s[t] {
			out = append(out, t)
		}
	}
	return out
}

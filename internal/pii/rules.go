package pii

import "regexp"

// DetectionRule pairs a candidate pattern with a structural validator.
// The pattern yields raw candidate spans at BaseConfidence; candidates that
// also pass Validate are reported at BoostConfidence instead.
type DetectionRule struct {
	Type            Type
	Pattern         *regexp.Regexp
	BaseConfidence  float64
	BoostConfidence float64
	Validate        func(match string) bool
}

// defaultRules returns the built-in recognizer table. URL carries a high base
// confidence because the scheme prefix is a strong signal; that lets a URL
// span win overlap resolution against an email embedded in its userinfo or
// path.
func defaultRules() []DetectionRule {
	return []DetectionRule{
		{
			Type:            TypeSSN,
			Pattern:         regexp.MustCompile(`\b\d{3}[- ]\d{2}[- ]\d{4}\b`),
			BaseConfidence:  0.75,
			BoostConfidence: 0.95,
			Validate:        validSSN,
		},
		{
			Type:            TypeCreditCard,
			Pattern:         regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
			BaseConfidence:  0.60,
			BoostConfidence: 0.95,
			Validate:        validCardNumber,
		},
		{
			Type:            TypeEmail,
			Pattern:         regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			BaseConfidence:  0.70,
			BoostConfidence: 0.85,
			Validate:        validEmailDomain,
		},
		{
			Type:            TypePhone,
			Pattern:         regexp.MustCompile(`(?:\+\d{1,3}[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`),
			BaseConfidence:  0.55,
			BoostConfidence: 0.75,
			Validate:        validPhoneDigits,
		},
		{
			Type:            TypeIPAddress,
			Pattern:         regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			BaseConfidence:  0.70,
			BoostConfidence: 0.90,
			Validate:        validIPv4Octets,
		},
		{
			Type:            TypeURL,
			Pattern:         regexp.MustCompile(`\bhttps?://[^\s<>"']+`),
			BaseConfidence:  0.90,
			BoostConfidence: 0.90,
		},
	}
}

package kyc

import "agro-kyc/internal/models"

// ValidThreshold is the minimum share of required categories a document must
// match. The boundary is inclusive.
const ValidThreshold = 0.7

// Validate scores text against a rule set.
func (rs *RuleSet) Validate(text string) models.ValidationResult {
	result := models.ValidationResult{MatchedRules: []string{}}
	if len(rs.patterns) == 0 {
		return result
	}

	requiredMatched := 0
	for _, p := range rs.patterns {
		if !p.re.MatchString(text) {
			continue
		}
		result.MatchedRules = append(result.MatchedRules, p.name)
		if _, ok := rs.required[p.name]; ok {
			requiredMatched++
		}
	}

	result.Score = float64(len(result.MatchedRules)) / float64(len(rs.patterns))
	if len(rs.required) == 0 {
		result.Confidence = result.Score
	} else {
		result.Confidence = float64(requiredMatched) / float64(len(rs.required))
	}
	result.IsValid = result.Confidence >= ValidThreshold

	return result
}

// ValidateDocument applies the rule set registered for docType. A type with
// no rule set is reported invalid with a zero score so the resolver can send
// it to manual review.
func ValidateDocument(rules *Rules, text string, docType models.DocumentType) models.ValidationResult {
	set, ok := rules.RuleSet(docType)
	if !ok {
		return models.ValidationResult{MatchedRules: []string{}}
	}
	return set.Validate(text)
}

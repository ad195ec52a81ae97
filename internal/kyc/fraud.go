package kyc

import "agro-kyc/internal/models"

// ScoreFraud tests every fraud indicator against text. Indicators are global;
// the document type is not consulted. Any single hit flags the document.
func ScoreFraud(rules *Rules, text string) models.FraudAssessment {
	assessment := models.FraudAssessment{TriggeredIndicators: []string{}}
	if len(rules.indicators) == 0 {
		return assessment
	}

	for _, ind := range rules.indicators {
		if ind.re.MatchString(text) {
			assessment.TriggeredIndicators = append(assessment.TriggeredIndicators, ind.name)
		}
	}

	assessment.FraudScore = float64(len(assessment.TriggeredIndicators)) / float64(len(rules.indicators))
	assessment.IsSuspected = assessment.FraudScore > 0

	return assessment
}

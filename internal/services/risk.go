package services

type RiskTier string

const (
	RiskHigh     RiskTier = "high"
	RiskModerate RiskTier = "moderate"
	RiskLow      RiskTier = "low"
)

// RiskLevel is a severity tier with its display metadata.
type RiskLevel struct {
	Tier        RiskTier `json:"tier"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
}

var riskLevels = map[RiskTier]RiskLevel{
	RiskHigh:     {Tier: RiskHigh, Label: "High Priority", Description: "Immediate professional consultation recommended", Color: "red"},
	RiskModerate: {Tier: RiskModerate, Label: "Moderate Priority", Description: "Professional review suggested", Color: "amber"},
	RiskLow:      {Tier: RiskLow, Label: "Low Priority", Description: "Continue monitoring and support", Color: "green"},
}

// Classify maps an overall score to a risk tier. Thresholds are checked high to low.
func Classify(score int) RiskLevel {
	switch {
	case score >= 75:
		return riskLevels[RiskHigh]
	case score >= 50:
		return riskLevels[RiskModerate]
	default:
		return riskLevels[RiskLow]
	}
}

// LevelForTier returns the display metadata for a stored tier.
func LevelForTier(tier RiskTier) (RiskLevel, bool) {
	lvl, ok := riskLevels[tier]
	return lvl, ok
}

package entity

import "fmt"

type AgentProfile string

const (
	AgentProfileQuality AgentProfile = "quality"
	AgentProfileSpeed   AgentProfile = "speed"
)

func ParseAgentProfile(s string) (AgentProfile, error) {
	switch AgentProfile(s) {
	case AgentProfileQuality, AgentProfileSpeed:
		return AgentProfile(s), nil
	}
	return "", &ValidationError{Field: "agent_profile", Message: fmt.Sprintf("unknown profile %q (want quality or speed)", s)}
}

type AgentProfileInfo struct {
	Profile     AgentProfile `json:"profile"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	UseCases    []string     `json:"use_cases"`
}

var AgentProfiles = []AgentProfileInfo{
	{
		Profile:     AgentProfileQuality,
		Name:        "Quality",
		Description: "More thorough reasoning and analysis. Best for complex tasks requiring deep thinking.",
		UseCases: []string{
			"Complex problem solving",
			"Detailed document analysis",
			"Code review and optimization",
			"Research and synthesis",
		},
	},
	{
		Profile:     AgentProfileSpeed,
		Name:        "Speed",
		Description: "Faster responses with efficient processing. Best for quick queries and simple tasks.",
		UseCases: []string{
			"Quick questions",
			"Simple file processing",
			"Rapid prototyping",
			"Fast iterations",
		},
	},
}

const (
	MinTimeoutSeconds = 60
	MaxTimeoutSeconds = 600
)

func ValidateTimeout(seconds int) error {
	if seconds < MinTimeoutSeconds || seconds > MaxTimeoutSeconds {
		return &ValidationError{
			Field:   "timeout_seconds",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinTimeoutSeconds, MaxTimeoutSeconds, seconds),
		}
	}
	return nil
}

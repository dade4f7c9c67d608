package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dkotov/pitchlab/internal/domain"
)

// SeedScenarios inserts the built-in practice catalog if the entries do not
// already exist. Existing rows are updated in place so deployments pick up
// catalog changes without migrations.
func SeedScenarios(ctx context.Context, repo Repository) error {
	now := time.Now().UTC()
	for _, sc := range builtinScenarios {
		sc.CreatedAt = now
		sc.UpdatedAt = now
		if err := repo.UpsertScenario(ctx, &sc); err != nil {
			return fmt.Errorf("seed scenario %s: %w", sc.ID, err)
		}
	}
	return nil
}

var builtinScenarios = []domain.Scenario{
	{
		ID:              "cold-call-enterprise-vp",
		Title:           "Cold Call: Enterprise VP of Sales",
		Description:     "Open a cold call with a time-pressed VP who has seen every pitch in the book. Earn the next fifteen minutes.",
		ScenarioType:    "cold_call",
		ProspectPersona: "enterprise_vp",
		DifficultyLevel: 3,
		DurationHint:    "5-8 minutes",
		Objectives:      []string{"Practice discovery questions", "Earn credibility in the first minute", "Secure a follow-up meeting"},
		Tags:            []string{"cold calling", "enterprise", "opening"},
		Active:          true,
	},
	{
		ID:              "cold-call-smb-owner",
		Title:           "Cold Call: Small Business Owner",
		Description:     "Reach an owner-operator who answers their own phone and guards their time fiercely.",
		ScenarioType:    "cold_call",
		ProspectPersona: "smb_owner",
		DifficultyLevel: 2,
		DurationHint:    "4-6 minutes",
		Objectives:      []string{"Practice discovery questions", "Keep the conversation concrete", "Handle the brush-off"},
		Tags:            []string{"cold calling", "smb"},
		Active:          true,
	},
	{
		ID:              "objection-pricing",
		Title:           "Objection Handling: It's Too Expensive",
		Description:     "The prospect likes the product but balks at the price. Uncover the real concern behind the number.",
		ScenarioType:    "objection_handling",
		ProspectPersona: "smb_owner",
		DifficultyLevel: 2,
		DurationHint:    "5-7 minutes",
		Objectives:      []string{"Handle objections effectively", "Reframe price as value", "Keep the deal moving"},
		Tags:            []string{"objections", "pricing"},
		Active:          true,
	},
	{
		ID:              "discovery-startup-founder",
		Title:           "Discovery: Startup Founder",
		Description:     "A founder with strong opinions and a shifting roadmap. Map their actual problem before pitching anything.",
		ScenarioType:    "discovery",
		ProspectPersona: "startup_founder",
		DifficultyLevel: 3,
		DurationHint:    "8-10 minutes",
		Objectives:      []string{"Practice discovery questions", "Develop active listening skills", "Qualify the opportunity"},
		Tags:            []string{"discovery", "startup"},
		Active:          true,
	},
	{
		ID:              "demo-technical-buyer",
		Title:           "Product Demo: Technical Buyer",
		Description:     "A skeptical technical evaluator who probes every claim. Tie capabilities to their evaluation criteria.",
		ScenarioType:    "demo",
		ProspectPersona: "technical_buyer",
		DifficultyLevel: 4,
		DurationHint:    "10-12 minutes",
		Objectives:      []string{"Build compelling value propositions", "Enhance business understanding", "Handle technical objections"},
		Tags:            []string{"demo", "technical"},
		Active:          true,
	},
	{
		ID:              "negotiation-enterprise-vp",
		Title:           "Negotiation: Enterprise Procurement",
		Description:     "Final-stage negotiation with a VP anchoring hard on discount. Protect value while closing the deal.",
		ScenarioType:    "negotiation",
		ProspectPersona: "enterprise_vp",
		DifficultyLevel: 5,
		DurationHint:    "8-12 minutes",
		Objectives:      []string{"Strengthen closing techniques", "Improve conversation control", "Trade concessions, don't give them"},
		Tags:            []string{"negotiation", "closing", "enterprise"},
		Active:          true,
	},
}

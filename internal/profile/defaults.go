package profile

// Default returns the built-in sixteen-participant roster used when no
// profile file is supplied.
func Default() *Roster {
	r, err := NewRoster(defaultProfiles)
	if err != nil {
		// The built-in roster is complete by construction.
		panic(err)
	}
	return r
}

var defaultProfiles = []AgentProfile{
	{
		Name:        "Avery Chen",
		Role:        "Product Strategist",
		Idea:        "AI concierge that distills founder brainstorms into validated persona briefs within minutes.",
		Skills:      []string{"product", "user_research", "storytelling", "facilitation"},
		Personality: "Visionary Facilitator",
		Motivation:  "Unlock stronger ideas through collaborative synthesis.",
		XPLevel:     "senior",
	},
	{
		Name:        "Diego Martinez",
		Role:        "Full-Stack Engineer",
		Idea:        "Predictive ops dashboard for AI agents building MVPs from Slack.",
		Skills:      []string{"fullstack", "devops", "automation", "python", "ai_integrations"},
		Personality: "Analytical Builder",
		Motivation:  "Ship resilient infra that scales.",
		XPLevel:     "senior",
	},
	{
		Name:        "Nia Roberts",
		Role:        "UX Researcher",
		Idea:        "High-speed customer interview simulator driven by real transcripts.",
		Skills:      []string{"user_research", "insights", "prototyping", "facilitation"},
		Personality: "Empathetic Challenger",
		Motivation:  "Surface hidden user truths fast.",
		XPLevel:     "senior",
	},
	{
		Name:        "Jonah Patel",
		Role:        "Data Scientist",
		Idea:        "Realtime experimentation engine ranking hackathon pitches by signal.",
		Skills:      []string{"data_science", "ml", "experimentation", "python"},
		Personality: "Curious Analyst",
		Motivation:  "Quantify what teams feel is subjective.",
		XPLevel:     "mid",
	},
	{
		Name:        "Priya Singh",
		Role:        "AI Engineer",
		Idea:        "Agent orchestrator that critiques hackathon output against product heuristics.",
		Skills:      []string{"ml", "prompt_engineering", "python", "evaluation"},
		Personality: "Focused Architect",
		Motivation:  "Keep AI output grounded in product reality.",
		XPLevel:     "senior",
	},
	{
		Name:        "Leo Wang",
		Role:        "Growth Hacker",
		Idea:        "Referral loop kit that prototypes go-to-market motions in hours.",
		Skills:      []string{"growth", "analytics", "copywriting", "no_code"},
		Personality: "Energetic Catalyst",
		Motivation:  "Find traction stories quickly.",
		XPLevel:     "mid",
	},
	{
		Name:        "Maya Thompson",
		Role:        "Product Designer",
		Idea:        "Adaptive whiteboard that scores ideation sessions for novelty vs. focus.",
		Skills:      []string{"design", "storytelling", "systems_thinking", "prototyping"},
		Personality: "Synthesis Oriented",
		Motivation:  "Translate fuzzy concepts into tangible flows.",
		XPLevel:     "senior",
	},
	{
		Name:        "Raj Kulkarni",
		Role:        "Backend Engineer",
		Idea:        "Infra accelerator bundling auth, payments, and analytics for weekend hacks.",
		Skills:      []string{"backend", "python", "systems", "security"},
		Personality: "Calm Optimizer",
		Motivation:  "Reduce toil for builders.",
		XPLevel:     "senior",
	},
	{
		Name:        "Lena Fischer",
		Role:        "Operations Lead",
		Idea:        "Team health monitor that forecasts burnout during intense build cycles.",
		Skills:      []string{"operations", "enablement", "analytics", "coaching"},
		Personality: "Supportive Realist",
		Motivation:  "Keep teams aligned and sustainable.",
		XPLevel:     "mid",
	},
	{
		Name:        "Quinn O'Neal",
		Role:        "Creative Technologist",
		Idea:        "Mixed reality pitch room that play-tests product walkthroughs with judges.",
		Skills:      []string{"creative_coding", "design", "storytelling", "hardware"},
		Personality: "Bold Experimenter",
		Motivation:  "Make ideas feel tangible fast.",
		XPLevel:     "mid",
	},
	{
		Name:        "Sara Ibrahim",
		Role:        "AI Product Manager",
		Idea:        "Adaptive backlog prioritizer using real-time customer sentiment signals.",
		Skills:      []string{"product", "ai_integrations", "ops", "communication"},
		Personality: "Outcome Driver",
		Motivation:  "Ship the right thing next.",
		XPLevel:     "senior",
	},
	{
		Name:        "Noah Brooks",
		Role:        "Front-End Engineer",
		Idea:        "Component library that turns user discovery notes into live prototypes.",
		Skills:      []string{"frontend", "design_systems", "typescript", "ux"},
		Personality: "Detail Advocate",
		Motivation:  "Deliver tight experiences fast.",
		XPLevel:     "mid",
	},
	{
		Name:        "Isabella Rossi",
		Role:        "BizOps Strategist",
		Idea:        "Week-one KPI simulator that stress tests monetization stories.",
		Skills:      []string{"ops", "finance", "market_analysis", "storytelling"},
		Personality: "Strategic Connector",
		Motivation:  "Bridge product, market, and numbers.",
		XPLevel:     "mid",
	},
	{
		Name:        "Malik Johnson",
		Role:        "Community Builder",
		Idea:        "Dynamic contributor graph that pairs hackers by energy and goals.",
		Skills:      []string{"community", "facilitation", "growth", "storytelling"},
		Personality: "Inclusive Spark",
		Motivation:  "Ensure everyone finds their lane.",
		XPLevel:     "mid",
	},
	{
		Name:        "Camila Duarte",
		Role:        "AI Ethics Researcher",
		Idea:        "Bias radar that flags risk zones in AI-driven hackathon ideas.",
		Skills:      []string{"ethics", "research", "analysis", "communication"},
		Personality: "Principled Mediator",
		Motivation:  "Ship responsibly without slowing momentum.",
		XPLevel:     "mid",
	},
	{
		Name:        "Ethan Park",
		Role:        "DevRel Engineer",
		Idea:        "Demo autopilot that records feature walkthroughs and generates docs instantly.",
		Skills:      []string{"developer_relations", "content", "automation", "frontend"},
		Personality: "Enthusiastic Storyteller",
		Motivation:  "Help teams craft compelling demos.",
		XPLevel:     "mid",
	},
}

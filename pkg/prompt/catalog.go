package prompt

import (
	"github.com/writestuff/writestuff-api/pkg/domain"
)

// catalog mirrors the form configuration of each writing tool page.
var catalog = []Category{
	{
		QueryType: domain.QueryTypeProse,
		Title:     "Fictional Prose Assistant",
		Options: []FocusOption{
			{Value: "plot", Label: "Plot & Structure", Fields: []string{"premise", "genre", "tone", "length"}},
			{Value: "characters", Label: "Character Development", Fields: []string{"premise", "genre", "characters"}},
			{Value: "dialogue", Label: "Dialogue", Fields: []string{"premise", "genre", "tone", "characters"}},
			{Value: "setting", Label: "Setting & Description", Fields: []string{"premise", "genre", "setting"}},
			{Value: "all", Label: "All of the above", Fields: []string{"premise", "genre", "tone", "length", "pov", "characters", "setting"}},
		},
		Fields: []Field{
			{Key: "premise", Label: "Premise"},
			{Key: "genre", Label: "Genre"},
			{Key: "tone", Label: "Tone"},
			{Key: "length", Label: "Length"},
			{Key: "pov", Label: "Point of view"},
			{Key: "characters", Label: "Characters"},
			{Key: "setting", Label: "Setting"},
		},
	},
	{
		QueryType: domain.QueryTypePoetry,
		Title:     "Poetry Assistant",
		Options: []FocusOption{
			{Value: "poem", Label: "Poem", Fields: []string{"premise", "theme", "tone", "length", "rhymeScheme", "poetryStyle", "meter"}},
			{Value: "imagery", Label: "Imagery suggestions", Fields: []string{"premise", "theme", "tone"}},
			{Value: "rhyme_meter", Label: "Rhyme/Meter guidance", Fields: []string{"rhymeScheme", "meter", "poetryStyle", "premise"}},
			{Value: "style_tone", Label: "Style/Tone suggestions", Fields: []string{"tone", "poetryStyle", "premise"}},
			{Value: "all", Label: "All of the above", Fields: []string{"premise", "theme", "tone", "length", "rhymeScheme", "poetryStyle", "meter"}},
		},
		Fields: []Field{
			{Key: "premise", Label: "Premise"},
			{Key: "theme", Label: "Theme"},
			{Key: "tone", Label: "Tone"},
			{Key: "length", Label: "Length"},
			{Key: "rhymeScheme", Label: "Rhyme scheme"},
			{Key: "poetryStyle", Label: "Style"},
			{Key: "meter", Label: "Meter"},
		},
	},
	{
		QueryType: domain.QueryTypeNonfiction,
		Title:     "Nonfiction Writing Assistant",
		Options: []FocusOption{
			{Value: "outline", Label: "Outline & Structure", Fields: []string{"topic", "audience", "purpose", "length"}},
			{Value: "argument", Label: "Argument & Evidence", Fields: []string{"topic", "purpose", "audience"}},
			{Value: "voice", Label: "Voice & Style", Fields: []string{"topic", "tone", "audience"}},
			{Value: "research", Label: "Research Framing", Fields: []string{"topic", "purpose", "format"}},
			{Value: "all", Label: "All of the above", Fields: []string{"topic", "audience", "purpose", "tone", "length", "format"}},
		},
		Fields: []Field{
			{Key: "topic", Label: "Topic"},
			{Key: "audience", Label: "Target audience"},
			{Key: "purpose", Label: "Purpose"},
			{Key: "tone", Label: "Tone"},
			{Key: "length", Label: "Length"},
			{Key: "format", Label: "Format"},
		},
	},
	{
		QueryType: domain.QueryTypeSongwriting,
		Title:     "Songwriting Assistant",
		Options: []FocusOption{
			{Value: "theme", Label: "Theme/Concept", Fields: []string{"genre", "theme", "mood"}},
			{Value: "lyrics", Label: "Lyrics & Wordcraft", Fields: []string{"genre", "theme", "mood", "structure", "length"}},
			{Value: "melody", Label: "Melody & Hook", Fields: []string{"genre", "theme", "mood", "melody"}},
			{Value: "structure", Label: "Structure/Arrangement", Fields: []string{"genre", "theme", "structure", "length"}},
			{Value: "style", Label: "Style/Genre & Performance tips", Fields: []string{"genre", "mood", "performanceContext"}},
			{Value: "all", Label: "All of the above", Fields: []string{"genre", "theme", "mood", "length", "structure", "melody", "performanceContext"}},
		},
		Fields: []Field{
			{Key: "genre", Label: "Genre"},
			{Key: "theme", Label: "Theme"},
			{Key: "mood", Label: "Mood"},
			{Key: "length", Label: "Length"},
			{Key: "structure", Label: "Structure"},
			{Key: "melody", Label: "Melody idea"},
			{Key: "performanceContext", Label: "Performance context"},
		},
	},
	{
		QueryType: domain.QueryTypeStageScreen,
		Title:     "Stage & Screen Assistant",
		Options: []FocusOption{
			{Value: "structure", Label: "Scene Structure & Pacing", Fields: []string{"premise", "medium", "genre", "structure", "characters"}},
			{Value: "dialogue", Label: "Dialogue Crafting", Fields: []string{"premise", "genre", "tone", "characters", "dialogueStyle"}},
			{Value: "characters", Label: "Character Arcs & Dynamics", Fields: []string{"premise", "genre", "characters"}},
			{Value: "visuals", Label: "Visual & Staging Suggestions", Fields: []string{"premise", "medium", "genre", "tone", "visuals"}},
			{Value: "all", Label: "All of the above", Fields: []string{"premise", "medium", "genre", "tone", "characters", "structure", "dialogueStyle", "visuals"}},
		},
		Fields: []Field{
			{Key: "premise", Label: "Premise"},
			{Key: "medium", Label: "Medium"},
			{Key: "genre", Label: "Genre"},
			{Key: "tone", Label: "Tone"},
			{Key: "characters", Label: "Characters"},
			{Key: "structure", Label: "Structure"},
			{Key: "dialogueStyle", Label: "Dialogue style"},
			{Key: "visuals", Label: "Visual preferences"},
		},
	},
	{
		QueryType: domain.QueryTypeContent,
		Title:     "Content Creation Assistant",
		Options: []FocusOption{
			{Value: "strategy", Label: "Audience/Platform Strategy", Fields: []string{"audience", "platform", "theme", "growthObjectives"}},
			{Value: "ideas", Label: "Content Ideas", Fields: []string{"audience", "platform", "theme", "format", "tone"}},
			{Value: "script", Label: "Script/Storyboard", Fields: []string{"theme", "format", "tone", "length", "audience"}},
			{Value: "production", Label: "Filming & Production Tips", Fields: []string{"format", "budget", "platform"}},
			{Value: "growth", Label: "Posting/Optimization & Growth", Fields: []string{"platform", "audience", "schedule", "growthObjectives"}},
			{Value: "all", Label: "All of the above", Fields: []string{"audience", "platform", "theme", "format", "tone", "length", "budget", "schedule", "growthObjectives"}},
		},
		Fields: []Field{
			{Key: "audience", Label: "Target audience"},
			{Key: "platform", Label: "Platform"},
			{Key: "theme", Label: "Theme"},
			{Key: "format", Label: "Format"},
			{Key: "tone", Label: "Tone"},
			{Key: "length", Label: "Length"},
			{Key: "budget", Label: "Budget"},
			{Key: "schedule", Label: "Schedule"},
			{Key: "growthObjectives", Label: "Growth objectives"},
		},
	},
}

package pipeline

// Keyword tables driving page classification and item detection. These are
// tuned against real architectural sets; keep additions lowercase.

var classificationKeywords = map[string][]string{
	"FLOOR_PLAN": {
		"floor plan", "plan view", "layout", "unit plan",
		"reflected ceiling", "furniture plan",
	},
	"ELEVATION": {
		"elevation", "interior elevation", "wall elevation",
		"section", "detail elevation",
	},
	"SCHEDULE": {
		"schedule", "door schedule", "window schedule",
		"finish schedule", "hardware schedule", "fixture schedule",
	},
	"DETAIL": {
		"detail", "enlarged", "section detail", "typical detail",
		"shower detail", "glass detail", "mirror detail",
	},
	"NOTES": {
		"general notes", "specifications", "notes", "abbreviations",
		"symbols", "legend", "assumptions", "exclusions",
	},
	"TITLE": {
		"title sheet", "cover sheet", "cover page", "index",
		"sheet index", "drawing index",
	},
}

// classificationOrder fixes the iteration order over classificationKeywords
// so ties resolve the same way on every run.
var classificationOrder = []string{
	"FLOOR_PLAN", "ELEVATION", "SCHEDULE", "DETAIL", "NOTES", "TITLE",
}

// relevanceKeywords flag what a page talks about, independent of its
// classification.
var relevanceKeywords = map[string][]string{
	"showers": {
		"shower", "enclosure", "frameless", "glass panel",
		"shower door", "shower screen", "steam shower",
	},
	"mirrors": {
		"mirror", "vanity mirror", "bathroom mirror",
	},
	"assumptions": {
		"assumption", "exclusion", "general note", "note",
		"specification", "scope",
	},
}

var relevanceOrder = []string{"showers", "mirrors", "assumptions"}

// relevantClassifications are always worth extracting from.
var relevantClassifications = map[string]bool{
	"SCHEDULE":  true,
	"DETAIL":    true,
	"NOTES":     true,
	"ELEVATION": true,
}

var showerKeywords = []string{
	"shower enclosure", "frameless shower", "glass enclosure",
	"shower door", "glass panel", "fixed panel", "inline panel",
	"neo-angle", "90 degree", "90°", "corner shower",
	"bypass", "sliding shower", "steam shower",
	"bathtub enclosure", "tub panel",
}

var mirrorKeywords = []string{
	"vanity mirror", "bathroom mirror", "mirror",
	"beveled mirror", "frameless mirror",
}

// configurationKeywords map detected phrasing to the template configuration
// slugs the drawing generator understands. Order matters: the first match
// wins, so more specific configurations come before generic ones.
var configurationOrder = []string{
	"inline-panel", "inline-panel-door",
	"90-degree-corner", "90-degree-corner-door",
	"neo-angle", "frameless-sliding",
	"bathtub-fixed-panel", "bathtub-panel-door",
	"vanity-mirror", "vanity-mirror-custom",
	"steam-shower", "custom-enclosure",
}

var configurationKeywords = map[string][]string{
	"inline-panel":          {"inline panel", "fixed panel", "single panel"},
	"inline-panel-door":     {"panel and door", "panel + door", "inline door"},
	"90-degree-corner":      {"90 degree corner", "90° corner", "corner panel"},
	"90-degree-corner-door": {"90 degree corner door", "90° corner door", "corner door"},
	"neo-angle":             {"neo-angle", "neo angle", "neoangle"},
	"frameless-sliding":     {"sliding", "bypass", "bypass shower"},
	"bathtub-fixed-panel":   {"bathtub panel", "tub panel", "tub fixed"},
	"bathtub-panel-door":    {"bathtub door", "tub door", "bathtub panel door"},
	"vanity-mirror":         {"vanity mirror", "rectangular mirror"},
	"vanity-mirror-custom":  {"custom mirror", "shaped mirror", "mirror cutout"},
	"steam-shower":          {"steam shower", "steam enclosure"},
	"custom-enclosure":      {"wine cellar", "custom enclosure", "custom glass"},
}

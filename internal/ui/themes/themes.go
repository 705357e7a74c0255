// Package themes provides color palettes for the UI status page, one per
// supported train set.
package themes

// Palette holds the CSS color values rendered into the page template.
type Palette struct {
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary"`
	Accent      string `json:"accent"`
	Background  string `json:"background"`
	Text        string `json:"text"`
	Button      string `json:"button"`
	ButtonHover string `json:"button_hover"`
}

// Theme pairs a display name and category with its palette.
type Theme struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Colors   Palette `json:"colors"`
}

// DefaultTheme is used when an unknown theme identifier is requested.
const DefaultTheme = "lionel_lines"

var themes = map[string]Theme{
	"polar_express": {
		Name:     "The Polar Express",
		Category: "Christmas",
		Colors: Palette{
			Primary:     "#1e3a8a",
			Secondary:   "#fbbf24",
			Accent:      "#dc2626",
			Background:  "#0c1e44",
			Text:        "#ffffff",
			Button:      "#fbbf24",
			ButtonHover: "#f59e0b",
		},
	},
	"christmas_celebration": {
		Name:     "Christmas Celebration",
		Category: "Christmas",
		Colors: Palette{
			Primary:     "#dc2626",
			Secondary:   "#16a34a",
			Accent:      "#fbbf24",
			Background:  "#7f1d1d",
			Text:        "#ffffff",
			Button:      "#16a34a",
			ButtonHover: "#15803d",
		},
	},
	"winter_wonderland": {
		Name:     "Winter Wonderland",
		Category: "Christmas",
		Colors: Palette{
			Primary:     "#0ea5e9",
			Secondary:   "#e0f2fe",
			Accent:      "#f0f9ff",
			Background:  "#0c4a6e",
			Text:        "#ffffff",
			Button:      "#0ea5e9",
			ButtonHover: "#0284c7",
		},
	},
	"hogwarts_express": {
		Name:     "Hogwarts Express",
		Category: "Licensed",
		Colors: Palette{
			Primary:     "#7c2d12",
			Secondary:   "#fbbf24",
			Accent:      "#1e293b",
			Background:  "#450a0a",
			Text:        "#ffffff",
			Button:      "#fbbf24",
			ButtonHover: "#f59e0b",
		},
	},
	"thomas_friends": {
		Name:     "Thomas & Friends Christmas Freight",
		Category: "Licensed",
		Colors: Palette{
			Primary:     "#2563eb",
			Secondary:   "#dc2626",
			Accent:      "#16a34a",
			Background:  "#1e3a8a",
			Text:        "#ffffff",
			Button:      "#dc2626",
			ButtonHover: "#b91c1c",
		},
	},
	"santa_fe": {
		Name:     "Santa Fe Super Chief",
		Category: "Railroad",
		Colors: Palette{
			Primary:     "#dc2626",
			Secondary:   "#fbbf24",
			Accent:      "#1f2937",
			Background:  "#991b1b",
			Text:        "#ffffff",
			Button:      "#fbbf24",
			ButtonHover: "#f59e0b",
		},
	},
	"union_pacific": {
		Name:     "Union Pacific Flyer",
		Category: "Railroad",
		Colors: Palette{
			Primary:     "#fbbf24",
			Secondary:   "#dc2626",
			Accent:      "#1f2937",
			Background:  "#92400e",
			Text:        "#ffffff",
			Button:      "#dc2626",
			ButtonHover: "#b91c1c",
		},
	},
	"pennsylvania": {
		Name:     "Pennsylvania Flyer",
		Category: "Railroad",
		Colors: Palette{
			Primary:     "#7c2d12",
			Secondary:   "#fbbf24",
			Accent:      "#1f2937",
			Background:  "#450a0a",
			Text:        "#ffffff",
			Button:      "#fbbf24",
			ButtonHover: "#f59e0b",
		},
	},
	"area_51": {
		Name:     "Area 51 UFO Recovery",
		Category: "Specialty",
		Colors: Palette{
			Primary:     "#10b981",
			Secondary:   "#1f2937",
			Accent:      "#fbbf24",
			Background:  "#064e3b",
			Text:        "#ffffff",
			Button:      "#fbbf24",
			ButtonHover: "#f59e0b",
		},
	},
	"john_deere": {
		Name:     "John Deere Steam Freight",
		Category: "Specialty",
		Colors: Palette{
			Primary:     "#16a34a",
			Secondary:   "#fbbf24",
			Accent:      "#1f2937",
			Background:  "#14532d",
			Text:        "#ffffff",
			Button:      "#fbbf24",
			ButtonHover: "#f59e0b",
		},
	},
	"graffiti": {
		Name:     "Graffiti",
		Category: "Specialty",
		Colors: Palette{
			Primary:     "#ec4899",
			Secondary:   "#a855f7",
			Accent:      "#10b981",
			Background:  "#1f2937",
			Text:        "#ffffff",
			Button:      "#ec4899",
			ButtonHover: "#db2777",
		},
	},
	"lionel_lines": {
		Name:     "Lionel Lines Mixed Freight",
		Category: "Classic",
		Colors: Palette{
			Primary:     "#667eea",
			Secondary:   "#764ba2",
			Accent:      "#fbbf24",
			Background:  "#312e81",
			Text:        "#ffffff",
			Button:      "#667eea",
			ButtonHover: "#5568d3",
		},
	},
	"prairie_freight": {
		Name:     "Prairie Freight",
		Category: "Classic",
		Colors: Palette{
			Primary:     "#78716c",
			Secondary:   "#16a34a",
			Accent:      "#fbbf24",
			Background:  "#44403c",
			Text:        "#ffffff",
			Button:      "#16a34a",
			ButtonHover: "#15803d",
		},
	},
}

// Get returns the theme for the given identifier, falling back to the
// default theme when the identifier is unknown.
func Get(themeID string) Theme {
	theme, ok := themes[themeID]
	if !ok {
		return themes[DefaultTheme]
	}
	return theme
}

// ByCategory returns all available themes grouped by category, each entry
// annotated with its identifier.
func ByCategory() map[string][]ThemeListing {
	categories := make(map[string][]ThemeListing)
	for themeID, theme := range themes {
		categories[theme.Category] = append(categories[theme.Category], ThemeListing{
			ID:     themeID,
			Name:   theme.Name,
			Colors: theme.Colors,
		})
	}
	return categories
}

// ThemeListing is one entry of the grouped theme catalog.
type ThemeListing struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Colors Palette `json:"colors"`
}

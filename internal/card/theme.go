package card

type rgb struct{ r, g, b int }

// Theme is a named card palette. Callers resolve one through
// ThemeByName; an unset theme on Data renders with the default palette.
type Theme struct {
	Name       string
	background rgb
	title      rgb
	body       rgb
	track      rgb
	bar        rgb
}

var themes = []Theme{
	{
		Name:       "default",
		background: rgb{35, 39, 42},
		title:      rgb{255, 255, 255},
		body:       rgb{200, 200, 200},
		track:      rgb{100, 100, 100},
		bar:        rgb{88, 175, 120},
	},
	{
		Name:       "dark",
		background: rgb{18, 18, 22},
		title:      rgb{235, 235, 235},
		body:       rgb{150, 150, 160},
		track:      rgb{55, 55, 66},
		bar:        rgb{95, 115, 220},
	},
	{
		Name:       "gold",
		background: rgb{44, 36, 16},
		title:      rgb{255, 236, 180},
		body:       rgb{215, 195, 145},
		track:      rgb{105, 90, 50},
		bar:        rgb{232, 186, 60},
	},
}

func DefaultTheme() Theme {
	return themes[0]
}

// ThemeNames lists the selectable palettes in declaration order, for
// building the command choice list.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for _, theme := range themes {
		names = append(names, theme.Name)
	}
	return names
}

// ThemeByName resolves a palette by its name; ok is false for unknown
// names.
func ThemeByName(name string) (Theme, bool) {
	for _, theme := range themes {
		if theme.Name == name {
			return theme, true
		}
	}
	return Theme{}, false
}

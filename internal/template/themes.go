package template

// themes are palette overrides applied after a template loads.
var themes = map[string]Colors{
	"light": {
		Background: "#FFFFFF",
		Text:       "#333333",
		Muted:      "#5F5F5F",
		Divider:    "#D8D8D8",
	},
	"gray": {
		Background: "#ECECEC",
		Text:       "#333333",
		Muted:      "#5A5A5A",
		Divider:    "#C8C8C8",
	},
	"dark": {
		Background: "#121212",
		Text:       "#F0F0F0",
		Muted:      "#B0B0B0",
		Divider:    "#3A3A3A",
	},
}

// Themes lists the recognized theme names.
func Themes() []string {
	return []string{"dark", "gray", "light"}
}

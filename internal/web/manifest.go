package web

// ManifestIcon is one icon of the app manifest.
type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// AppManifest is the installable web app manifest.
type AppManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Lang            string         `json:"lang"`
	Icons           []ManifestIcon `json:"icons"`
}

// Manifest returns the app manifest.
func Manifest() AppManifest {
	return AppManifest{
		Name:            "SplitKar",
		ShortName:       "SplitKar",
		Description:     "Split and settle expenses with Indian friends and family.",
		StartURL:        "/",
		Display:         "standalone",
		BackgroundColor: "#020617",
		ThemeColor:      "#16a34a",
		Lang:            "en-IN",
		Icons: []ManifestIcon{
			{Src: "/icons/icon-192x192.png", Sizes: "192x192", Type: "image/png"},
			{Src: "/icons/icon-512x512.png", Sizes: "512x512", Type: "image/png"},
		},
	}
}

package config

// CatalogConfig selects which catalog source files to load from the
// catalog directory. An empty Sources list means every .json file except
// the info code catalog, matching the "select all" behavior.
type CatalogConfig struct {
	Sources       []string `toml:"sources"`
	InfoCodesJSON string   `toml:"info_codes_json"`
	InfoCodesText string   `toml:"info_codes_text"`
}

// Finalize applies defaults.
func (c *CatalogConfig) Finalize() error {
	if c.InfoCodesJSON == "" {
		c.InfoCodesJSON = "info_codes.json"
	}
	if c.InfoCodesText == "" {
		c.InfoCodesText = "info_codes.txt"
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *CatalogConfig) Merge(overlay *CatalogConfig) {
	if len(overlay.Sources) > 0 {
		c.Sources = overlay.Sources
	}
	if overlay.InfoCodesJSON != "" {
		c.InfoCodesJSON = overlay.InfoCodesJSON
	}
	if overlay.InfoCodesText != "" {
		c.InfoCodesText = overlay.InfoCodesText
	}
}

package catalog

// PosterURL joins the configured poster base with a catalog path fragment.
// The fragment is used verbatim.
func (g *Gateway) PosterURL(path string) string {
	return ImageURL(g.imageBaseURL, path)
}

func (g *Gateway) BackdropURL(path string) string {
	return ImageURL(g.backdropBaseURL, path)
}

func ImageURL(base, path string) string {
	if path == "" {
		return ""
	}
	return base + path
}

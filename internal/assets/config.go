package assets

import "path/filepath"

type Config struct {
	// Root of the front-end project, containing the entry point and public
	// directory
	Root string
	// Entry point relative to Root (e.g., "src/main.jsx")
	EntryPoint string
	// Output directory for built files, relative to Root
	OutDir string
	// Directory of static files served and copied verbatim, relative to Root
	PublicDir string
	// Page title rendered into index.html
	Title string
	// Whether to minify output
	Minify bool
	// Whether to enable source maps
	SourceMap bool
	// Extra compile time defines merged over the defaults
	Define map[string]string
}

// DefaultConfig returns the layout the project uses
func DefaultConfig() Config {
	return Config{
		Root:       ".",
		EntryPoint: "src/main.jsx",
		OutDir:     "dist",
		PublicDir:  "public",
		Title:      "NASA Space Apps Challenge 2024",
		Minify:     true,
		SourceMap:  true,
	}
}

func (c Config) entryPath() string {
	return filepath.Join(c.Root, c.EntryPoint)
}

func (c Config) outDirPath() string {
	return filepath.Join(c.Root, c.OutDir)
}

func (c Config) publicDirPath() string {
	return filepath.Join(c.Root, c.PublicDir)
}

func (c Config) metafilePath() string {
	return filepath.Join(c.Root, c.OutDir, "meta.json")
}

func (c Config) indexPath() string {
	return filepath.Join(c.Root, c.OutDir, "index.html")
}

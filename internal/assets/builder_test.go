package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/buildcfg"
)

func testProject(t *testing.T) (buildcfg.Config, Config) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "public"), 0750))

	files := map[string]string{
		"src/main.jsx":      "import \"./app.css\";\nimport { greeting } from \"./util.js\";\ndocument.getElementById(\"root\").textContent = greeting;\n",
		"src/util.js":       "export const greeting = \"hello from the build\";\n",
		"src/app.css":       "body { margin: 0; }\n",
		"public/robots.txt": "User-agent: *\n",
	}
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0600))
	}

	site, err := buildcfg.Load(nil)
	require.NoError(t, err)

	config := Config{
		Root:       dir,
		EntryPoint: "src/main.jsx",
		OutDir:     "dist",
		PublicDir:  "public",
		Title:      "Test Site",
		Minify:     true,
		SourceMap:  false,
	}

	return site, config
}

func TestPipelineBuild(t *testing.T) {
	site, config := testProject(t)
	p := New(site, config)

	require.NoError(t, p.Build())

	require.FileExists(t, filepath.Join(config.Root, "dist", "meta.json"))
	require.FileExists(t, filepath.Join(config.Root, "dist", "index.html"))
	require.FileExists(t, filepath.Join(config.Root, "dist", "robots.txt"))

	entry, _, styles, err := p.Assets()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(entry, "/NASASpaceAppsChallenge2024/"))
	require.Contains(t, entry, "main-")
	require.True(t, strings.HasSuffix(entry, ".js"))
	require.Len(t, styles, 1)
	require.True(t, strings.HasSuffix(styles[0], ".css"))

	index, err := os.ReadFile(filepath.Join(config.Root, "dist", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(index), entry)
	require.Contains(t, string(index), styles[0])
	require.Contains(t, string(index), "<title>Test Site</title>")
}

func TestPipelineBuildReportsErrors(t *testing.T) {
	site, config := testProject(t)
	broken := []byte("const = nope;\n")
	require.NoError(t, os.WriteFile(filepath.Join(config.Root, "src", "main.jsx"), broken, 0600))

	p := New(site, config)
	err := p.Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "esbuild failed")
}

func TestPipelineWatch(t *testing.T) {
	site, config := testProject(t)
	p := New(site, config)

	require.NoError(t, p.Watch(t.Context()))

	entry, _, _, err := p.Assets()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(entry, site.BasePath))
}

func TestAssetsBeforeBuild(t *testing.T) {
	site, config := testProject(t)
	p := New(site, config)

	_, _, _, err := p.Assets()
	require.Error(t, err)
	require.Contains(t, err.Error(), "not built")
}

func TestBuildRefusesOutDirOutsideRoot(t *testing.T) {
	site, config := testProject(t)
	config.OutDir = "../escape"

	p := New(site, config)
	err := p.Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside the project root")
}

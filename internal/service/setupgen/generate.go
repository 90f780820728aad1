package setupgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/droplab/recipe-runner/internal/logger"
)

const (
	// DefaultDefinitionFilename is the build definition read from the source tree.
	DefaultDefinitionFilename = "package.yaml"

	// SetupFilename is the generated packaging manifest.
	SetupFilename = "setup.py"

	// legacyShimName is the historical name of the generation script. When the
	// generator is invoked under this name, build tools pass one extra
	// positional argument which must be discarded.
	legacyShimName = "generate_setup"

	// setupFileMode keeps the generated manifest readable by the installer.
	setupFileMode os.FileMode = 0o644
)

var errNameRequired = errors.New("build definition must set a package name")

// Definition mirrors the package.yaml build definition from which the
// packaging manifest is generated.
type Definition struct {
	// Name is the distribution name.
	Name string `yaml:"name"`
	// Description is a one-line summary.
	Description string `yaml:"description"`
	// Author and AuthorEmail identify the maintainer.
	Author      string `yaml:"author"`
	AuthorEmail string `yaml:"author_email"`
	// URL is the project homepage.
	URL string `yaml:"url"`
	// License is the license identifier.
	License string `yaml:"license"`
	// Packages lists the Python packages to ship.
	Packages []string `yaml:"packages"`
	// Requires lists install-time dependency specifiers.
	Requires []string `yaml:"requires"`
	// EntryPoints maps console script names to their targets.
	EntryPoints map[string]string `yaml:"entry_points"`
}

// setupTemplate renders a plain setuptools manifest. The shape matches what
// the original build definition generated.
var setupTemplate = template.Must(template.New(SetupFilename).Parse(`from setuptools import setup

setup(name='{{.Name}}',
      version='{{.Version}}',
      description='{{.Description}}',
      author='{{.Author}}',
      author_email='{{.AuthorEmail}}',
      url='{{.URL}}',
      license='{{.License}}',
      packages=[{{range $i, $p := .Packages}}{{if $i}}, {{end}}'{{$p}}'{{end}}],
      install_requires=[{{range $i, $r := .Requires}}{{if $i}}, {{end}}'{{$r}}'{{end}}],
      include_package_data=True{{if .EntryPoints}},
      entry_points={'console_scripts': [{{range $i, $e := .EntryPoints}}{{if $i}},
                                        {{end}}'{{$e}}'{{end}}]}{{end}})
`))

// templateData is the resolved input to the manifest template.
type templateData struct {
	Definition

	// Version is the derived package version.
	Version string
	// EntryPoints is rendered as sorted "name = target" specifiers.
	EntryPoints []string
}

// LoadDefinition reads and validates a build definition file.
func LoadDefinition(path string) (*Definition, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read build definition: %w", err)
	}

	var def Definition
	if err = yaml.Unmarshal(contents, &def); err != nil {
		return nil, fmt.Errorf("unmarshal build definition: %w", err)
	}

	if def.Name == "" {
		return nil, errNameRequired
	}

	return &def, nil
}

// Generate renders the packaging manifest for the source tree: it reads
// <sourceDir>/package.yaml and writes <sourceDir>/setup.py with the
// provided version.
func Generate(ctx context.Context, sourceDir, version string) error {
	def, err := LoadDefinition(filepath.Join(sourceDir, DefaultDefinitionFilename))
	if err != nil {
		return err
	}

	data := templateData{
		Definition:  *def,
		Version:     version,
		EntryPoints: formatEntryPoints(def.EntryPoints),
	}

	var buf bytes.Buffer
	if err = setupTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", SetupFilename, err)
	}

	target := filepath.Join(sourceDir, SetupFilename)
	if err = os.WriteFile(target, buf.Bytes(), setupFileMode); err != nil {
		return fmt.Errorf("write %s: %w", SetupFilename, err)
	}

	logger.InfoKV(ctx, "Generated packaging manifest",
		"path", target, "package", def.Name, "version", version)

	return nil
}

// NormalizeArgs discards one trailing positional argument when the generator
// was invoked under its legacy script name. Build tools pass the recipe
// directory as an extra argument to that historical entry point.
func NormalizeArgs(invokedAs string, args []string) []string {
	name := strings.TrimSuffix(filepath.Base(invokedAs), filepath.Ext(invokedAs))
	if name != legacyShimName || len(args) == 0 {
		return args
	}

	return args[:len(args)-1]
}

// formatEntryPoints renders the console script specifiers in stable order.
func formatEntryPoints(points map[string]string) []string {
	if len(points) == 0 {
		return nil
	}

	names := make([]string, 0, len(points))
	for name := range points {
		names = append(names, name)
	}

	sort.Strings(names)

	specs := make([]string, 0, len(names))
	for _, name := range names {
		specs = append(specs, name+" = "+points[name])
	}

	return specs
}

package cli

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
)

//go:embed templates/*.tmpl
var templates embed.FS

// scaffold maps generated file names to their template
var scaffold = map[string]string{
	"main.go":      "templates/main.go.tmpl",
	"rigging.yaml": "templates/rigging.yaml.tmpl",
	".gitignore":   "templates/gitignore.tmpl",
}

type project struct {
	Name string
}

func newCommand(options Options) *cobra.Command {
	return &cobra.Command{
		Use:   "new [path]",
		Short: "Create a new project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			created, err := Generate(path)
			if err != nil {
				return err
			}

			for _, file := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", file)
			}
			return nil
		},
	}
}

// Generate writes a new project into path and returns the created files.
// Nothing is written when any of the files already exists.
func Generate(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	p := project{Name: projectName(filepath.Base(abs))}

	names := []string{".gitignore", "main.go", "rigging.yaml"}
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(abs, name)); err == nil {
			return nil, fmt.Errorf("%s already exists in %s", name, abs)
		}
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}

	created := make([]string, 0, len(names))
	for _, name := range names {
		target := filepath.Join(abs, name)

		if err := render(scaffold[name], target, p); err != nil {
			return created, err
		}
		created = append(created, target)
	}

	return created, nil
}

func render(tmpl, target string, p project) error {
	t, err := template.ParseFS(templates, tmpl)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return t.Execute(f, p)
}

func projectName(base string) string {
	name := strings.ToLower(strings.TrimSpace(base))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)

	if name == "" || name == "-" || name == "." {
		return "app"
	}
	return name
}

package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/andrasna/folio/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName string
	SiteName    string
	Login       string
}

// renamed maps scaffold file names that cannot be embedded as-is to the
// names they get in the new project.
var renamed = map[string]string{
	"dotenv":    ".env.example",
	"gitignore": ".gitignore",
}

func newNewCmd() *cobra.Command {
	var login string
	cmd := &cobra.Command{
		Use:         "new <name>",
		Short:       "Create a new folio site",
		Example:     "  folio new my-portfolio\n  folio new my-portfolio --github andrasna",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"config": "skip"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd.OutOrStdout(), args[0], login)
		},
	}
	cmd.Flags().StringVar(&login, "github", "", "GitHub login whose pinned repositories are listed")
	return cmd
}

func runNew(w io.Writer, name, login string) error {
	dirName := filepath.Base(filepath.Clean(name))

	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("directory %q already exists", name)
	}

	data := scaffoldData{
		ProjectName: dirName,
		SiteName:    toTitle(dirName),
		Login:       login,
	}

	fmt.Fprintf(w, "Creating new folio site: %s\n\n", name)

	root := "templates"
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		outPath := filepath.Join(name, relPath)
		outPath = strings.TrimSuffix(outPath, ".tmpl")
		if to, ok := renamed[filepath.Base(outPath)]; ok {
			outPath = filepath.Join(filepath.Dir(outPath), to)
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		src, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		tmpl, err := template.New(filepath.Base(path)).Parse(string(src))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}

		fmt.Fprintf(w, "  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Done! Next steps:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  cd %s\n", name)
	fmt.Fprintln(w, "  cp .env.example .env.development")
	fmt.Fprintln(w, "  folio serve")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Write posts in content/blog, then run 'folio build' to render ./public.")
	fmt.Fprintln(w, "Set GITHUB_TOKEN and FOLIO_SESSION_SECRET in .env.development.")
	return nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string,
// e.g. "my-portfolio" -> "My Portfolio".
func toTitle(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.English).String(s)
}

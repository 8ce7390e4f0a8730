// Command check_boundaries enforces the import rules between the layers of
// every service under contexts/.
//
//	go run ./scripts/check_boundaries.go
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const module = "showingcover"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d imports %q (%s)", v.File, v.Line, v.Import, v.Rule)
}

// location identifies where a source file sits inside contexts/<context>/<service>/.
type location struct {
	Context string
	Service string
	Layer   string
}

func (l location) servicePath() string {
	return module + "/contexts/" + l.Context + "/" + l.Service
}

// layerAllowlists lists, per inward layer, the non-stdlib imports it may use.
// Entries starting with "./" are relative to the owning service.
var layerAllowlists = map[string][]string{
	"domain": {
		"./domain",
		"github.com/shopspring/decimal",
	},
	"application": {
		"./application",
		"./domain",
		"./ports",
		"github.com/shopspring/decimal",
		"golang.org/x/sync",
	},
	"ports": {
		"./domain",
		"./ports",
		module + "/internal/shared",
	},
	"transport": {
		"./transport",
		"github.com/shopspring/decimal",
	},
}

// applicationImporters are the only layers allowed to reach use cases.
var applicationImporters = []string{"application", "adapters", "module.go"}

func main() {
	violations, err := collectViolations("contexts")
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary check failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Println("- " + v.String())
	}
	os.Exit(1)
}

// collectViolations walks every non-test Go file under root and returns the
// violations sorted by file and line.
func collectViolations(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		loc, ok := locate(filepath.ToSlash(rel))
		if !ok {
			return nil
		}
		found, err := checkFile(path, loc)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(violations, func(a, b violation) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		return strings.Compare(a.Import, b.Import)
	})
	return violations, nil
}

// locate maps "<context>/<service>/<layer>/..." to a location. Files sitting
// directly in the service directory use their file name as the layer.
func locate(rel string) (location, bool) {
	parts := strings.Split(rel, "/")
	if len(parts) < 3 {
		return location{}, false
	}
	return location{Context: parts[0], Service: parts[1], Layer: parts[2]}, true
}

func checkFile(path string, loc location) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		for _, rule := range checkImport(loc, importPath) {
			violations = append(violations, violation{
				File:   filepath.ToSlash(path),
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   rule,
			})
		}
	}
	return violations, nil
}

// checkImport returns the rules broken by a single import from loc.
func checkImport(loc location, importPath string) []string {
	var broken []string
	own := loc.servicePath()

	if hasPathPrefix(importPath, module+"/contexts") && !hasPathPrefix(importPath, own) {
		broken = append(broken, "services must not import other services")
	}
	if hasPathPrefix(importPath, own+"/application") && !slices.Contains(applicationImporters, loc.Layer) {
		broken = append(broken, loc.Layer+" must not import application")
	}

	allowed, restricted := layerAllowlists[loc.Layer]
	if !restricted || isStdlib(importPath) {
		return broken
	}
	for _, prefix := range allowed {
		if rest, ok := strings.CutPrefix(prefix, "./"); ok {
			prefix = own + "/" + rest
		}
		if hasPathPrefix(importPath, prefix) {
			return broken
		}
	}
	return append(broken, loc.Layer+" import is outside its allowlist")
}

func hasPathPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPathPrefix(importPath, module) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

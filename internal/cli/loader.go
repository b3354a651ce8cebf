package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/roach88/querybuilder/internal/fieldspec"
	"github.com/roach88/querybuilder/internal/query"
)

// LoadError is an input that could not be read or decoded.
type LoadError struct {
	Code string // ErrCodeReadFailed or ErrCodeParseFailed
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// loadTree reads a JSON query tree. The path "-" reads stdin.
func loadTree(path string, stdin io.Reader) (*query.RuleGroup, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: path, Err: err}
	}
	tree, err := query.Parse(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Path: path, Err: err}
	}
	return tree, nil
}

// loadCatalog compiles a field catalog, or returns nil for an empty path.
func loadCatalog(path string) (*fieldspec.Catalog, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: path, Err: err}
	}
	cat, err := fieldspec.LoadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Path: path, Err: err}
	}
	return cat, nil
}

// failLoad reports a LoadError (or any other error) as a command error.
func failLoad(out *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	if le, ok := err.(*LoadError); ok {
		code = le.Code
	}
	return out.Fail(ExitCommandError, code, "load input", err)
}

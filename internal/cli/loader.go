package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/layouts"
)

// LoadResult contains the results of loading layout files.
type LoadResult struct {
	Table     ir.LayoutTable
	FileCount int
}

// LoadError represents an error that occurred during layout loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadLayouts compiles CUE layout descriptors from a file or directory
// and merges them over the builtin table. Errors from every file are
// collected so a single run reports all problems.
func LoadLayouts(path string) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("layout path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing layout path: %v", err)}}
	}

	var cueFiles []string
	if info.IsDir() {
		cueFiles, err = FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(cueFiles) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
		}
	} else {
		cueFiles = []string{path}
	}

	cuectx := cuecontext.New()
	table := layouts.Builtin()
	var errs []error

	for _, file := range cueFiles {
		data, readErr := os.ReadFile(file)
		if readErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", file, readErr)})
			continue
		}
		v := cuectx.CompileBytes(data, cue.Filename(file))
		compiled, compileErr := layouts.CompileTable(v)
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, file))
			continue
		}
		table = table.Merge(compiled)
	}

	result := &LoadResult{Table: table, FileCount: len(cueFiles)}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a layouts compile error to a LoadError
// with position info.
func convertCompileError(err error, file string) *LoadError {
	var compileErr *layouts.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeBadLayout,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", file, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeScanError  = "E002" // Directory scan error
	ErrCodeNoFiles    = "E003" // No CUE files found
	ErrCodeLoadFailed = "E004" // File read failed
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeBadLayout  = "E101" // Layout descriptor rejected
	ErrCodeBadFilter  = "E102" // Trace query filter rejected
	ErrCodeNoSession  = "E103" // Session not found in store
)

package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Error code constants shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeBadDecl     = "E101" // chain declaration failed to compile
)

// LoadError is an error raised while loading declaration files.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult holds everything loaded from a declaration directory.
type LoadResult struct {
	Chains    []*CompiledChain
	FileCount int
}

// Chain returns the loaded chain with the given name, or nil.
func (r *LoadResult) Chain(name string) *CompiledChain {
	for _, c := range r.Chains {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// LoadDir loads every CUE declaration file in dir, compiles all chains
// found and collects every error instead of stopping at the first.
func LoadDir(dir string) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("declaration directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing declaration directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}
	var errs []error

	chainsVal := value.LookupPath(cue.ParsePath("chain"))
	if chainsVal.Exists() {
		iter, iterErr := chainsVal.Fields()
		if iterErr != nil {
			return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating chains: %v", iterErr)}}
		}
		for iter.Next() {
			compiled, compileErr := CompileChain(iter.Label(), iter.Value())
			if compileErr != nil {
				errs = append(errs, convertCompileError(compileErr))
				continue
			}
			result.Chains = append(result.Chains, compiled)
		}
	}

	if len(result.Chains) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no chain declarations found"})
	}

	// CUE field iteration order is not guaranteed; keep the result stable.
	sort.Slice(result.Chains, func(i, j int) bool {
		return result.Chains[i].Name < result.Chains[j].Name
	})

	return result, errs
}

func findCUEFiles(dir string) ([]string, error) {
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

func convertCompileError(err error) error {
	if compileErr, ok := err.(*CompileError); ok {
		return &LoadError{
			Code:    ErrCodeBadDecl,
			Message: compileErr.Error(),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

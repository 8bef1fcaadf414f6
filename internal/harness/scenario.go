package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios allocate memory, dispatch a sequence of intrinsic calls, and
// assert on the resulting trace.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Layouts lists paths to CUE layout files to compile and merge over
	// the builtin table. Paths are relative to the scenario file location.
	Layouts []string `yaml:"layouts,omitempty"`

	// Setup contains named allocations to create before the calls run.
	Setup []AllocStep `yaml:"setup,omitempty"`

	// Calls contains the main test flow: intrinsic dispatches with
	// expected results.
	Calls []CallStep `yaml:"calls"`

	// Assertions validate the final trace.
	// Supported types: trace_contains, trace_order, trace_count.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// SessionToken is an optional fixed session token for deterministic
	// tests. If empty, the harness uses "test-session-default" so golden
	// comparison stays stable across runs.
	SessionToken string `yaml:"session_token,omitempty"`
}

// AllocStep creates one named allocation in the arena.
//
// A fresh allocation starts fully uninitialized. If Bytes is given, those
// bytes are written starting at offset 0; otherwise the allocation is
// zero-filled unless Uninit is set.
type AllocStep struct {
	// Name is the handle call steps use to reference this allocation.
	Name string `yaml:"name"`

	// Size and Align describe the allocation. Align defaults to 1.
	Size  uint64 `yaml:"size"`
	Align uint64 `yaml:"align,omitempty"`

	// Bytes are written starting at offset 0; the rest of the allocation
	// stays uninitialized unless zero-filled.
	Bytes []int `yaml:"bytes,omitempty"`

	// Uninit leaves the allocation (beyond Bytes) uninitialized.
	Uninit bool `yaml:"uninit,omitempty"`

	// Pointers stores pointer values into the allocation, establishing
	// provenance the way a real program's pointer store would.
	Pointers []StoredPointer `yaml:"pointers,omitempty"`
}

// StoredPointer writes a pointer into an allocation during setup.
type StoredPointer struct {
	// At is the byte offset within the enclosing allocation.
	At uint64 `yaml:"at"`

	// To names the target allocation; Offset is added to its base.
	To     string `yaml:"to"`
	Offset uint64 `yaml:"offset,omitempty"`
}

// CallStep dispatches one intrinsic and optionally validates the result.
type CallStep struct {
	// Intrinsic is the intrinsic name (e.g. "ctpop", "ptr_offset_from").
	Intrinsic string `yaml:"intrinsic"`

	// Types are the generic type arguments, by layout-table name.
	Types []string `yaml:"types,omitempty"`

	// Args are the operands, in order.
	Args []OperandSpec `yaml:"args,omitempty"`

	// Dest names the result type. When set, the harness allocates a
	// destination of that layout and passes it as the call's destination.
	Dest string `yaml:"dest,omitempty"`

	// Expect specifies the expected outcome. If nil, the call is assumed
	// to be handled without error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// OperandSpec describes one operand. Exactly one of Int, Ptr, or Addr
// must be set.
type OperandSpec struct {
	// Type is the operand's layout-table type name.
	Type string `yaml:"type"`

	// Int supplies an immediate scalar at the layout's width.
	Int *int64 `yaml:"int,omitempty"`

	// Ptr names a setup allocation; Offset is added to its base. The
	// operand carries the allocation's provenance.
	Ptr    string `yaml:"ptr,omitempty"`
	Offset int64  `yaml:"offset,omitempty"`

	// Addr supplies a bare pointer with no provenance.
	Addr *uint64 `yaml:"addr,omitempty"`
}

// ExpectClause specifies expected call behavior.
type ExpectClause struct {
	// Outcome is the expected trace outcome: "handled", "unhandled",
	// "error", or "abort". Defaults to "handled".
	Outcome string `yaml:"outcome,omitempty"`

	// ErrorKind and ErrorRule match the recorded failure classification
	// (e.g. "UNDEFINED_BEHAVIOR" / "OUT_OF_BOUNDS").
	ErrorKind string `yaml:"error_kind,omitempty"`
	ErrorRule string `yaml:"error_rule,omitempty"`

	// Int, when set, is compared against the destination scalar after
	// the call. Requires a dest on the call step.
	Int *int64 `yaml:"int,omitempty"`
}

// Assertion validates the final trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an intrinsic appears in the trace
	// - "trace_order": intrinsics appear in order
	// - "trace_count": an intrinsic appears exactly N times
	Type string `yaml:"type"`

	// Intrinsic is the intrinsic name (trace_contains, trace_count).
	Intrinsic string `yaml:"intrinsic,omitempty"`

	// Outcome, when set, restricts trace_contains to records with that
	// outcome.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Intrinsics is the expected order (trace_order).
	Intrinsics []string `yaml:"intrinsics,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving layout paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, layoutPath := range scenario.Layouts {
		if !filepath.IsAbs(layoutPath) && basePath != "" {
			scenario.Layouts[i] = filepath.Join(basePath, layoutPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Calls) == 0 {
		return fmt.Errorf("calls list is required and must be non-empty")
	}

	for _, layoutPath := range s.Layouts {
		if _, err := os.Stat(layoutPath); os.IsNotExist(err) {
			return fmt.Errorf("layout file not found: %s", layoutPath)
		}
	}

	seen := make(map[string]bool)
	for i, step := range s.Setup {
		if step.Name == "" {
			return fmt.Errorf("setup[%d]: name is required", i)
		}
		if seen[step.Name] {
			return fmt.Errorf("setup[%d]: duplicate allocation name %q", i, step.Name)
		}
		seen[step.Name] = true
		if step.Size == 0 && len(step.Bytes) == 0 {
			return fmt.Errorf("setup[%d]: size is required", i)
		}
		if uint64(len(step.Bytes)) > step.Size {
			return fmt.Errorf("setup[%d]: %d bytes exceed size %d", i, len(step.Bytes), step.Size)
		}
		for j, b := range step.Bytes {
			if b < 0 || b > 255 {
				return fmt.Errorf("setup[%d].bytes[%d]: %d is not a byte", i, j, b)
			}
		}
		for j, p := range step.Pointers {
			if p.To == "" {
				return fmt.Errorf("setup[%d].pointers[%d]: to is required", i, j)
			}
			if !seen[p.To] && p.To != step.Name {
				return fmt.Errorf("setup[%d].pointers[%d]: unknown allocation %q", i, j, p.To)
			}
		}
	}

	for i, step := range s.Calls {
		if step.Intrinsic == "" {
			return fmt.Errorf("calls[%d]: intrinsic is required", i)
		}
		for j, op := range step.Args {
			if err := validateOperand(&op); err != nil {
				return fmt.Errorf("calls[%d].args[%d]: %w", i, j, err)
			}
			if op.Ptr != "" && !seen[op.Ptr] {
				return fmt.Errorf("calls[%d].args[%d]: unknown allocation %q", i, j, op.Ptr)
			}
		}
		if step.Expect != nil {
			if err := validateExpect(step.Expect); err != nil {
				return fmt.Errorf("calls[%d].expect: %w", i, err)
			}
			if step.Expect.Int != nil && step.Dest == "" {
				return fmt.Errorf("calls[%d].expect: int requires a dest", i)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateOperand checks that exactly one operand form is set.
func validateOperand(op *OperandSpec) error {
	if op.Type == "" {
		return fmt.Errorf("type is required")
	}
	forms := 0
	if op.Int != nil {
		forms++
	}
	if op.Ptr != "" {
		forms++
	}
	if op.Addr != nil {
		forms++
	}
	if forms != 1 {
		return fmt.Errorf("exactly one of int, ptr, or addr is required")
	}
	if op.Offset != 0 && op.Ptr == "" {
		return fmt.Errorf("offset requires ptr")
	}
	return nil
}

func validateExpect(e *ExpectClause) error {
	switch e.Outcome {
	case "", "handled", "unhandled", "error", "abort":
	default:
		return fmt.Errorf("unknown outcome %q", e.Outcome)
	}
	if e.ErrorRule != "" && e.Outcome != "error" {
		return fmt.Errorf("error_rule requires outcome: error")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Intrinsic == "" {
			return fmt.Errorf("assertions[%d]: intrinsic is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Intrinsics) == 0 {
			return fmt.Errorf("assertions[%d]: intrinsics list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Intrinsic == "" {
			return fmt.Errorf("assertions[%d]: intrinsic is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

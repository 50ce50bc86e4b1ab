// Package validator checks a workflowdoc.Document for structural and
// registry-consistency problems before the Execution Engine runs it.
// Document shape is a gojsonschema check (adopted from the
// yesoreyeram-thaiyyal example pack, which carries the same dependency);
// version strings use Masterminds/semver/v3, already an indirect
// dependency of the teacher.
package validator

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Narcis13/workscript-sub004/internal/node"
	"github.com/Narcis13/workscript-sub004/internal/registry"
	"github.com/Narcis13/workscript-sub004/internal/workflowdoc"
)

// documentSchema is the minimal shape check: every document needs an id,
// a name, a non-empty version string (semver is checked later, in the
// semantic pass), and a non-empty workflow array. Per-step
// shape is enforced by workflowdoc.Step's own unmarshaller, which already
// rejects malformed steps before a Document reaches the validator.
const documentSchema = `{
	"type": "object",
	"required": ["id", "name", "version", "workflow"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1},
		"version": {"type": "string", "minLength": 1},
		"workflow": {"type": "array", "minItems": 1}
	}
}`

// Severity distinguishes a fatal problem from an advisory one. Per the
// Open Question decision recorded in SPEC_FULL.md, unknown edge handlers
// and missing loop-terminate edges are Warnings, not load failures.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validator finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

// Result is the outcome of validating one document.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

func (r *Result) addError(path, format string, a ...any) {
	r.Valid = false
	r.Issues = append(r.Issues, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, a...)})
}

func (r *Result) addWarning(path, format string, a ...any) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, a...)})
}

// Validator checks documents against a schema and a node.Registry.
type Validator struct {
	reg    *registry.Registry
	schema *gojsonschema.Schema
}

// New builds a Validator backed by reg. Panics only if the embedded
// schema literal itself is malformed, which is a programming error.
func New(reg *registry.Registry) *Validator {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic("validator: invalid embedded schema: " + err.Error())
	}
	return &Validator{reg: reg, schema: schema}
}

// ValidateRaw validates a not-yet-parsed document in one pass: schema
// shape first (against the raw JSON), then the workflowdoc parser, which
// reports malformed steps, then a semantic pass on the parsed document
// when both pass. scope is the
// scope the document will be executed under — validation must resolve
// node ids the same way Engine.Run will, so a validate success actually
// implies an execute success (spec.md §8).
func (v *Validator) ValidateRaw(raw []byte, scope node.Scope) (*Result, *workflowdoc.Document) {
	result := &Result{Valid: true}

	loader := gojsonschema.NewBytesLoader(raw)
	shapeResult, err := v.schema.Validate(loader)
	if err != nil {
		result.addError("", "document is not valid JSON: %v", err)
		return result, nil
	}
	for _, re := range shapeResult.Errors() {
		result.addError(re.Field(), "%s", re.Description())
	}
	if !result.Valid {
		return result, nil
	}

	doc, err := workflowdoc.Parse(raw)
	if err != nil {
		result.addError("workflow", "malformed step: %v", err)
		return result, nil
	}

	v.validateSemantics(result, doc, scope)
	return result, doc
}

// Validate runs only the semantic pass against an already-parsed
// document, for callers (e.g. the engine, before Run) that parsed once.
// scope must match the scope the document will execute under.
func (v *Validator) Validate(doc *workflowdoc.Document, scope node.Scope) *Result {
	result := &Result{Valid: true}
	v.validateSemantics(result, doc, scope)
	return result
}

func (v *Validator) validateSemantics(result *Result, doc *workflowdoc.Document, scope node.Scope) {
	if _, err := semver.NewVersion(doc.Version); err != nil {
		result.addError("version", "version %q is not valid semver: %v", doc.Version, err)
	}

	for k, val := range doc.InitialState {
		if !isJSONSerialisable(val) {
			result.addWarning("initialState."+k, "value is not JSON-serialisable")
		}
	}

	v.walkSteps(result, "workflow", doc.Workflow, scope)
}

func (v *Validator) walkSteps(result *Result, path string, steps []workflowdoc.Step, scope node.Scope) {
	for i, step := range steps {
		stepPath := fmt.Sprintf("%s[%d]", path, i)
		v.checkStep(result, stepPath, step, scope)
	}
}

func (v *Validator) checkStep(result *Result, path string, step workflowdoc.Step, scope node.Scope) {
	if step.Kind == workflowdoc.KindStateSetter {
		if !isJSONSerialisable(step.ValueExpr) {
			result.addError(path, "state-setter value for %q is not JSON-serialisable", step.StatePath)
		}
		return
	}

	n, known := v.reg.Get(scope, step.NodeID)
	if !known {
		result.addError(path, "unknown node id %q", step.NodeID)
		return
	}
	meta := n.Metadata()
	if vn, ok := n.(node.Validatable); ok {
		if err := vn.Validate(step.Config); err != nil {
			result.addError(path, "invalid config for node %q: %v", step.NodeID, err)
		}
	}

	isLoop := step.IsLoop || meta.IsLoop
	if isLoop && len(meta.ExpectedEdges) > 0 {
		continueEdges := meta.ContinueEdges
		if len(continueEdges) == 0 {
			continueEdges = []string{"do", "continue"}
		}
		hasTerminate := false
		for _, e := range meta.ExpectedEdges {
			if !contains(continueEdges, e) {
				hasTerminate = true
				break
			}
		}
		if !hasTerminate {
			result.addWarning(path, "loop node %q declares no terminate edge distinct from its continue set", step.NodeID)
		}
	}

	if step.Kind != workflowdoc.KindInlineNode {
		return
	}
	for edge, body := range step.Handlers {
		if len(meta.ExpectedEdges) > 0 && !contains(meta.ExpectedEdges, edge) {
			result.addWarning(path, "handler %q? is not in node %q's expected edges %v", edge, step.NodeID, meta.ExpectedEdges)
		}
		v.walkSteps(result, path+"."+edge+"?", body, scope)
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func isJSONSerialisable(v any) bool {
	_, err := json.Marshal(v)
	return err == nil
}

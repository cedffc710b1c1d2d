// YAMLLoader implements the config adapter spec.md §2 calls out as
// "interface only, implementation out of scope": loading an Interview from
// a directory of YAML files. Recovered from _examples/original_source/
// (see SPEC_FULL.md §3.1): one interview.yaml (id, optional title, a
// questions sequence mixing inline bodies and {file: "..."} references,
// and a steps sequence) plus any number of standalone question files.
// Loads from an fs.FS so tests can use fstest.MapFS while production uses
// os.DirFS.
package config

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loopfield/interview-engine/common"
	"github.com/loopfield/interview-engine/internal/field"
	"github.com/loopfield/interview-engine/internal/ierr"
	"github.com/loopfield/interview-engine/internal/interview"
	"github.com/loopfield/interview-engine/internal/locator"
	"github.com/loopfield/interview-engine/internal/question"
	"github.com/loopfield/interview-engine/internal/step"
	"github.com/loopfield/interview-engine/internal/tmpl"
)

// YAMLLoader loads Interview bundles through a single *tmpl.Engine, so
// every template/expression in a bundle shares one function registry.
type YAMLLoader struct {
	Engine *tmpl.Engine

	// HookClient is shared by every Hook step this loader builds, so
	// webhook requests across interviews pool connections through one
	// *http.Client instead of each step falling back to
	// http.DefaultClient. Nil is fine in tests that never reach a Hook
	// step.
	HookClient *http.Client
}

// NewYAMLLoader builds a loader bound to engine.
func NewYAMLLoader(engine *tmpl.Engine) *YAMLLoader {
	return &YAMLLoader{Engine: engine}
}

// stringList decodes either a single scalar or a sequence of scalars into
// a string slice, for spec.md §4.5's "when: Expr|[Expr]" and the `eval`
// step's equivalent shape.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}
		if one != "" {
			*s = []string{one}
		}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = many
		return nil
	case 0:
		return nil
	default:
		return fmt.Errorf("expected a scalar or a sequence, got yaml kind %d", node.Kind)
	}
}

type bundleYAML struct {
	ID        string            `yaml:"id"`
	Title     string            `yaml:"title"`
	Questions []questionRefYAML `yaml:"questions"`
	Steps     []stepYAML        `yaml:"steps"`
}

type questionRefYAML struct {
	File string `yaml:"file"`
	questionYAML `yaml:",inline"`
}

type questionYAML struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	When        stringList  `yaml:"when"`
	Fields      []fieldYAML `yaml:"fields"`
}

type fieldYAML struct {
	Kind         string       `yaml:"kind"`
	Set          string       `yaml:"set"`
	Optional     bool         `yaml:"optional"`
	Label        string       `yaml:"label"`
	Min          *float64     `yaml:"min"`
	Max          *float64     `yaml:"max"`
	MinDate      string       `yaml:"min_date"`
	MaxDate      string       `yaml:"max_date"`
	Integer      bool         `yaml:"integer"`
	Regex        string       `yaml:"regex"`
	Format       string       `yaml:"format"`
	InputMode    string       `yaml:"input_mode"`
	Autocomplete string       `yaml:"autocomplete"`
	Component    string       `yaml:"component"`
	Multi        bool         `yaml:"multi"`
	Options      []optionYAML `yaml:"options"`
}

type optionYAML struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Value   any    `yaml:"value"`
	Default bool   `yaml:"default"`
	Primary bool   `yaml:"primary"`
}

type stepYAML struct {
	Kind        string     `yaml:"kind"`
	When        stringList `yaml:"when"`
	Ask         string     `yaml:"ask"`
	Set         string     `yaml:"set"`
	Value       string     `yaml:"value"`
	Eval        stringList `yaml:"eval"`
	Exit        string     `yaml:"exit"`
	Description string     `yaml:"description"`
	Block       []stepYAML `yaml:"block"`
	URL         string     `yaml:"url"`
}

// LoadInterview reads dir/interview.yaml from fsys and builds the
// Interview it describes, resolving every `{file: ...}` question
// reference relative to dir.
func (l *YAMLLoader) LoadInterview(fsys fs.FS, dir string) (*interview.Interview, error) {
	raw, err := fs.ReadFile(fsys, path.Join(dir, "interview.yaml"))
	if err != nil {
		return nil, fmt.Errorf("reading interview.yaml: %w", err)
	}
	var bundle bundleYAML
	if err := yaml.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("parsing interview.yaml: %w", err)
	}

	id := bundle.ID
	if id == "" {
		id, err = common.Slugify(bundle.Title, "interview")
		if err != nil {
			return nil, fmt.Errorf("deriving interview id: %w", err)
		}
	}

	questions := make([]*question.Question, 0, len(bundle.Questions))
	byID := make(map[string]*question.Question, len(bundle.Questions))
	for _, ref := range bundle.Questions {
		qy, err := l.resolveQuestionYAML(fsys, dir, ref)
		if err != nil {
			return nil, err
		}
		q, err := l.buildQuestion(qy)
		if err != nil {
			return nil, fmt.Errorf("building question %q: %w", qy.ID, err)
		}
		questions = append(questions, q)
		byID[q.ID] = q
	}

	steps, err := l.buildSteps(bundle.Steps, byID)
	if err != nil {
		return nil, err
	}

	iv, err := interview.New(id, bundle.Title, questions, steps)
	if err != nil {
		return nil, err
	}
	if err := validateAskTargets(iv.Steps, iv.Questions); err != nil {
		return nil, err
	}
	return iv, nil
}

func (l *YAMLLoader) resolveQuestionYAML(fsys fs.FS, dir string, ref questionRefYAML) (questionYAML, error) {
	if ref.File == "" {
		return ref.questionYAML, nil
	}
	raw, err := fs.ReadFile(fsys, path.Join(dir, ref.File))
	if err != nil {
		return questionYAML{}, fmt.Errorf("reading question file %q: %w", ref.File, err)
	}
	var qy questionYAML
	if err := yaml.Unmarshal(raw, &qy); err != nil {
		return questionYAML{}, fmt.Errorf("parsing question file %q: %w", ref.File, err)
	}
	return qy, nil
}

func (l *YAMLLoader) buildQuestion(qy questionYAML) (*question.Question, error) {
	if qy.ID == "" {
		return nil, fmt.Errorf("question missing id")
	}

	var title, desc tmpl.Template
	var err error
	if qy.Title != "" {
		if title, err = l.Engine.Compile(qy.Title); err != nil {
			return nil, err
		}
	}
	if qy.Description != "" {
		if desc, err = l.Engine.Compile(qy.Description); err != nil {
			return nil, err
		}
	}
	when, err := l.buildGuards(qy.When)
	if err != nil {
		return nil, err
	}

	fields := make([]field.Field, 0, len(qy.Fields))
	for _, fy := range qy.Fields {
		f, err := l.buildField(fy)
		if err != nil {
			return nil, fmt.Errorf("field targeting %q: %w", fy.Set, err)
		}
		fields = append(fields, f)
	}

	return &question.Question{
		ID:          qy.ID,
		Title:       title,
		Description: desc,
		Fields:      fields,
		When:        when,
	}, nil
}

func (l *YAMLLoader) buildGuards(exprs stringList) ([]tmpl.Expression, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]tmpl.Expression, 0, len(exprs))
	for _, src := range exprs {
		e, err := l.Engine.CompileExpr(src)
		if err != nil {
			return nil, fmt.Errorf("compiling when %q: %w", src, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (l *YAMLLoader) buildField(fy fieldYAML) (field.Field, error) {
	setLoc, err := parseLocatorOrNil(fy.Set)
	if err != nil {
		return nil, err
	}

	var label tmpl.Template
	if fy.Label != "" {
		if label, err = l.Engine.Compile(fy.Label); err != nil {
			return nil, err
		}
	}

	switch fy.Kind {
	case "text":
		min, max := intOrZero(fy.Min), intOrZero(fy.Max)
		t, err := field.NewText(setLoc, fy.Optional, min, max, fy.Regex, fy.Format, fy.InputMode, fy.Autocomplete)
		if err != nil {
			return nil, err
		}
		t.LabelTemplate = label
		return t, nil

	case "number":
		return &field.Number{
			SetLoc:        setLoc,
			OptionalFlag:  fy.Optional,
			Integer:       fy.Integer,
			Min:           fy.Min,
			Max:           fy.Max,
			LabelTemplate: label,
		}, nil

	case "date":
		minT, err := parseOptionalDate(fy.MinDate)
		if err != nil {
			return nil, err
		}
		maxT, err := parseOptionalDate(fy.MaxDate)
		if err != nil {
			return nil, err
		}
		return &field.Date{
			SetLoc:        setLoc,
			OptionalFlag:  fy.Optional,
			Min:           minT,
			Max:           maxT,
			LabelTemplate: label,
		}, nil

	case "select":
		opts := buildOptions(fy.Options)
		min, max := intOrZero(fy.Min), intOrZero(fy.Max)
		s := field.NewSelect(setLoc, fy.Optional, fy.Component, fy.Multi, min, max, opts)
		s.LabelTemplate = label
		return s, nil

	case "button":
		opts := buildOptions(fy.Options)
		b := field.NewButton(setLoc, fy.Optional, opts)
		b.LabelTemplate = label
		return b, nil

	default:
		return nil, fmt.Errorf("unknown field kind %q", fy.Kind)
	}
}

func buildOptions(raw []optionYAML) []field.Option {
	opts := make([]field.Option, len(raw))
	for i, o := range raw {
		opts[i] = field.Option{ID: o.ID, Label: o.Label, Value: o.Value, Default: o.Default, Primary: o.Primary}
	}
	return opts
}

func intOrZero(f *float64) int {
	if f == nil {
		return 0
	}
	return int(*f)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}

func parseLocatorOrNil(src string) (locator.Locator, error) {
	if src == "" {
		return nil, nil
	}
	return locator.Parse(src)
}

func (l *YAMLLoader) buildSteps(raw []stepYAML, questions map[string]*question.Question) ([]step.Step, error) {
	out := make([]step.Step, 0, len(raw))
	for _, sy := range raw {
		st, err := l.buildStep(sy, questions)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (l *YAMLLoader) buildStep(sy stepYAML, questions map[string]*question.Question) (step.Step, error) {
	guards, err := l.buildGuards(sy.When)
	if err != nil {
		return nil, err
	}

	switch sy.Kind {
	case "ask":
		q, ok := questions[sy.Ask]
		if !ok {
			return nil, &ierr.Interview{Msg: "ask step references unknown question id " + sy.Ask}
		}
		return &step.Ask{Guards: guards, AskID: sy.Ask, Question: q}, nil

	case "set":
		target, err := locator.Parse(sy.Set)
		if err != nil {
			return nil, err
		}
		value, err := l.Engine.CompileExpr(sy.Value)
		if err != nil {
			return nil, fmt.Errorf("compiling set value %q: %w", sy.Value, err)
		}
		return &step.Set{Guards: guards, Target: target, Value: value}, nil

	case "eval":
		exprs := make([]tmpl.Expression, 0, len(sy.Eval))
		for _, src := range sy.Eval {
			e, err := l.Engine.CompileExpr(src)
			if err != nil {
				return nil, fmt.Errorf("compiling eval %q: %w", src, err)
			}
			exprs = append(exprs, e)
		}
		return &step.Eval{Guards: guards, Exprs: exprs}, nil

	case "exit":
		title, err := l.Engine.Compile(sy.Exit)
		if err != nil {
			return nil, fmt.Errorf("compiling exit title %q: %w", sy.Exit, err)
		}
		var desc tmpl.Template
		if sy.Description != "" {
			if desc, err = l.Engine.Compile(sy.Description); err != nil {
				return nil, err
			}
		}
		return &step.Exit{Guards: guards, Title: title, Description: desc}, nil

	case "block":
		nested, err := l.buildSteps(sy.Block, questions)
		if err != nil {
			return nil, err
		}
		return &step.Block{Guards: guards, Steps: nested}, nil

	case "hook":
		return &step.Hook{Guards: guards, URL: sy.URL, Client: l.HookClient}, nil

	default:
		return nil, fmt.Errorf("unknown step kind %q", sy.Kind)
	}
}

// LoadAll loads every bundle directly under root — each an
// immediate subdirectory of root containing its own interview.yaml — and
// returns them indexed by id, plus the discovery order for listing
// endpoints to preserve. A root that doesn't exist yet (a fresh checkout
// with no bundles authored) is not an error: it simply loads nothing.
func (l *YAMLLoader) LoadAll(fsys fs.FS, root string) (map[string]*interview.Interview, []string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*interview.Interview{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading interviews root %q: %w", root, err)
	}

	out := make(map[string]*interview.Interview, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := path.Join(root, e.Name())
		if _, err := fs.Stat(fsys, path.Join(dir, "interview.yaml")); err != nil {
			continue
		}
		iv, err := l.LoadInterview(fsys, dir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading bundle %q: %w", dir, err)
		}
		if _, dup := out[iv.ID]; dup {
			return nil, nil, fmt.Errorf("duplicate interview id %q (bundle %q)", iv.ID, dir)
		}
		out[iv.ID] = iv
		order = append(order, iv.ID)
	}
	return out, order, nil
}

// validateAskTargets implements spec.md §3's Interview invariant
// "referenced `ask` ids must resolve", walking into Block steps since an
// Ask can be nested.
func validateAskTargets(steps []step.Step, questions map[string]*question.Question) error {
	for _, st := range steps {
		switch s := st.(type) {
		case *step.Ask:
			if _, ok := questions[s.AskID]; !ok {
				return &ierr.Interview{Msg: "ask step references unknown question id " + s.AskID}
			}
		case *step.Block:
			if err := validateAskTargets(s.Steps, questions); err != nil {
				return err
			}
		}
	}
	return nil
}

package build

import (
	"context"
	"strings"

	"kiln/internal/logging"
	"kiln/internal/mcfg"
)

// RunRule builds the rule name after the rules it requires.
func (b *Builder) RunRule(ctx context.Context, name string) (int, error) {
	rules := b.file.Sector(RulesSector)
	if rules == nil {
		return 1, newError(ErrCodeNotFound, "build file has no %s sector", RulesSector)
	}
	r := rules.Section(name)
	if r == nil {
		return 1, newError(ErrCodeNotFound, "rule %q does not exist", name).
			WithContext("rule", name)
	}
	return b.runRule(ctx, r)
}

// rule is a rule section with its fields checked.
type rule struct {
	name      string
	rel       mcfg.Path
	buildType BuildType
	mode      ExecMode
	exec      string
	inFormat  string
	outFormat string
	input     *mcfg.List
	output    *mcfg.List
}

func (b *Builder) runRule(ctx context.Context, sec *mcfg.Section) (int, error) {
	leave, err := enter(&b.rules, "rule", sec.Name)
	if err != nil {
		b.log.Error("circular dependency", "rule", sec.Name, "history", strings.Join(b.rules, " -> "))
		return 1, err
	}
	defer leave()

	b.log.Log(ctx, logging.LevelSteps, "fulfilling rule", "rule", sec.Name)

	var res result
	deps, err := nameList(sec, "rule", RulesSector)
	if err != nil {
		return 1, err
	}
	for _, dep := range deps {
		res.fold(b.RunRule(ctx, dep))
		if res.stop(b.cfg.IgnoreFailures) {
			return res.unwrap()
		}
	}
	if res.failed() {
		b.log.Warn("dependencies failed, running rule anyway", "rule", sec.Name)
	}

	r, err := b.loadRule(sec)
	if err != nil {
		res.fold(1, err)
		return res.unwrap()
	}

	if r.mode == ExecUnify {
		res.fold(b.unify(ctx, r))
	} else {
		res.fold(b.singular(ctx, r))
	}
	return res.unwrap()
}

func (b *Builder) loadRule(sec *mcfg.Section) (*rule, error) {
	r := &rule{
		name:      sec.Name,
		rel:       mcfg.Path{Absolute: true, Sector: RulesSector, Section: sec.Name},
		buildType: b.cfg.BuildType,
		mode:      ExecSingular,
	}

	s, ok, err := stringField(sec, "rule", "build_type")
	if err != nil {
		return nil, err
	}
	if ok {
		bt, valid := ParseBuildType(s)
		if valid {
			r.buildType = bt
		} else {
			b.log.Warn("invalid build_type, inheriting", "rule", sec.Name, "value", s, "build_type", r.buildType.String())
		}
	}

	s, ok, err = stringField(sec, "rule", "exec_mode")
	if err != nil {
		return nil, err
	}
	if ok {
		mode, valid := ParseExecMode(s)
		if !valid {
			return nil, newError(ErrCodeInvalidValue, "rule %q has invalid exec_mode %q", sec.Name, s).
				WithContext("rule", sec.Name)
		}
		r.mode = mode
	}

	if r.exec, err = requireString(sec, "rule", "exec"); err != nil {
		return nil, err
	}
	if r.inFormat, err = requireString(sec, "rule", "input_format"); err != nil {
		return nil, err
	}
	if r.outFormat, err = requireString(sec, "rule", "output_format"); err != nil {
		return nil, err
	}
	if r.input, err = b.ruleList(sec, r.rel, "input"); err != nil {
		return nil, err
	}
	if r.mode == ExecUnify && sec.Field("output") == nil && sec.Field("output_src") == nil {
		r.output = mcfg.NewList(mcfg.TypeString)
	} else if r.output, err = b.ruleList(sec, r.rel, "output"); err != nil {
		return nil, err
	}
	return r, nil
}

// ruleList returns the list field name of sec, or the list addressed by the
// string field name_src.
func (b *Builder) ruleList(sec *mcfg.Section, rel mcfg.Path, name string) (*mcfg.List, error) {
	if fld := sec.Field(name); fld != nil {
		l := fld.List()
		if l == nil {
			return nil, wrongType("rule", sec.Name, name, "list")
		}
		return l, nil
	}

	src, ok, err := stringField(sec, "rule", name+"_src")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missingField("rule", sec.Name, name)
	}

	text, err := b.expand(src, rel)
	if err != nil {
		return nil, err
	}
	p := mcfg.ParsePath(strings.TrimSpace(text)).Complete(rel)
	fld := b.file.Resolve(p)
	if fld == nil {
		return nil, newError(ErrCodeNotFound, "%s_src of rule %q names missing field %s", name, sec.Name, p.String()).
			WithContext("rule", sec.Name)
	}
	l := fld.List()
	if l == nil {
		return nil, wrongType("rule", sec.Name, name+"_src", "list")
	}
	return l, nil
}

// stale reports whether in has to be rebuilt into out.
func (b *Builder) stale(r *rule, in, out string) bool {
	if r.buildType == BuildFull || b.cfg.Force {
		return true
	}
	return !b.fresh.IsNewer(out, in)
}

func (b *Builder) singular(ctx context.Context, r *rule) (int, error) {
	if r.input.Len() != r.output.Len() {
		return 1, newError(ErrCodeLengthMismatch, "rule %q has %d inputs but %d outputs", r.name, r.input.Len(), r.output.Len()).
			WithContext("rule", r.name)
	}

	var res result
	for i := range r.input.Items {
		res.fold(b.singularStep(ctx, r, r.input.Items[i], r.output.Items[i]))
		if res.failed() && !b.cfg.IgnoreFailures {
			break
		}
	}
	return res.unwrap()
}

// singularStep builds one output. %element% stays bound to the output
// element while exec is expanded.
func (b *Builder) singularStep(ctx context.Context, r *rule, inElem, outElem mcfg.Value) (int, error) {
	in, err := b.expandWith(r.inFormat, r.rel, "element", inElem)
	if err != nil {
		return 1, err
	}
	releaseElem := b.file.Bind("element", outElem)
	defer releaseElem()
	out, err := b.expand(r.outFormat, r.rel)
	if err != nil {
		return 1, err
	}

	if !b.stale(r, in, out) {
		b.log.Debug("up to date", "rule", r.name, "output", out)
		return 0, nil
	}
	b.log.Log(ctx, logging.LevelSteps, "building", "rule", r.name, "input", in, "output", out)

	releaseIn := b.file.Bind("input", mcfg.String(in))
	defer releaseIn()
	releaseOut := b.file.Bind("output", mcfg.String(out))
	defer releaseOut()
	script, err := b.expand(r.exec, r.rel)
	if err != nil {
		return 1, err
	}
	return b.execute(ctx, script, r.name)
}

// unify builds all stale inputs into one output. %element% keeps the last
// element bound, the final input or else the output, while exec is expanded.
func (b *Builder) unify(ctx context.Context, r *rule) (int, error) {
	var (
		out  string
		err  error
		last mcfg.Value
	)
	if r.output.Len() > 0 {
		last = r.output.Items[0]
		out, err = b.expandWith(r.outFormat, r.rel, "element", last)
	} else {
		out, err = b.expand(r.outFormat, r.rel)
	}
	if err != nil {
		return 1, err
	}

	var batch []string
	for _, elem := range r.input.Items {
		last = elem
		in, err := b.expandWith(r.inFormat, r.rel, "element", elem)
		if err != nil {
			return 1, err
		}
		if !b.stale(r, in, out) {
			b.log.Debug("up to date", "rule", r.name, "input", in)
			continue
		}
		batch = append(batch, in)
	}

	if len(batch) == 0 {
		b.log.Info("nothing to do", "rule", r.name, "output", out)
		return 0, nil
	}
	b.log.Log(ctx, logging.LevelSteps, "building", "rule", r.name, "inputs", len(batch), "output", out)

	if last != nil {
		releaseElem := b.file.Bind("element", last)
		defer releaseElem()
	}
	releaseIn := b.file.Bind("input", mcfg.String(strings.Join(batch, " ")))
	defer releaseIn()
	releaseOut := b.file.Bind("output", mcfg.String(out))
	defer releaseOut()

	script, err := b.expand(r.exec, r.rel)
	if err != nil {
		return 1, err
	}
	return b.execute(ctx, script, r.name)
}

package build

import (
	"context"
	"strings"

	"kiln/internal/logging"
	"kiln/internal/mcfg"
)

const linkPrefix = "target_"

// RunTarget builds the target name, including everything it requires.
func (b *Builder) RunTarget(ctx context.Context, name string) (int, error) {
	targets := b.file.Sector(TargetsSector)
	if targets == nil {
		return 1, newError(ErrCodeNotFound, "build file has no %s sector", TargetsSector)
	}
	t := targets.Section(name)
	if t == nil {
		return 1, newError(ErrCodeNotFound, "target %q does not exist", name).
			WithContext("target", name)
	}
	return b.runTarget(ctx, t)
}

func (b *Builder) runTarget(ctx context.Context, t *mcfg.Section) (int, error) {
	leave, err := enter(&b.targets, "target", t.Name)
	if err != nil {
		b.log.Error("circular dependency", "target", t.Name, "history", strings.Join(b.targets, " -> "))
		return 1, err
	}
	defer leave()

	b.log.Log(ctx, logging.LevelSteps, "building target", "target", t.Name)

	unlink := b.link(t)
	defer unlink()

	var res result

	required, err := nameList(t, "target", "required_targets")
	if err != nil {
		return 1, err
	}
	for _, dep := range required {
		res.fold(b.RunTarget(ctx, dep))
		if res.stop(b.cfg.IgnoreFailures) {
			return res.unwrap()
		}
	}

	rules, err := nameList(t, "target", RulesSector)
	if err != nil {
		return 1, err
	}
	for _, rule := range rules {
		res.fold(b.RunRule(ctx, rule))
		if res.stop(b.cfg.IgnoreFailures) {
			return res.unwrap()
		}
	}

	if res.failed() {
		b.log.Warn("dependencies failed, running target anyway", "target", t.Name)
	}

	script, ok, err := stringField(t, "target", "exec")
	if err != nil {
		return 1, err
	}
	if ok {
		rel := mcfg.Path{Absolute: true, Sector: TargetsSector, Section: t.Name}
		script, err = b.expand(script, rel)
		if err != nil {
			return 1, err
		}
		res.fold(b.execute(ctx, script, t.Name))
	}
	return res.unwrap()
}

// link exposes every target_<name> field of t as the dynamic field name.
// The returned function removes the bindings again.
func (b *Builder) link(t *mcfg.Section) (unlink func()) {
	var releases []func()
	for _, fld := range t.Fields {
		name, ok := strings.CutPrefix(fld.Name, linkPrefix)
		if !ok || name == "" {
			continue
		}
		b.log.Debug("linking field", "target", t.Name, "field", fld.Name, "as", "%"+name+"%")
		releases = append(releases, b.file.Bind(name, fld.Value))
	}
	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
}

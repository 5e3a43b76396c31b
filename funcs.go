package main

import (
	"context"
	"fmt"
	"io"

	"github.com/agilira/go-errors"

	"kiln/internal/build"
	"kiln/internal/mcfg"
)

// targetInfos lists the targets of file in declaration order.
func targetInfos(file *mcfg.File, cfg build.Config) []TargetInfo {
	sector := file.Sector(build.TargetsSector)
	if sector == nil {
		return nil
	}

	infos := make([]TargetInfo, 0, len(sector.Sections))
	for _, sec := range sector.Sections {
		infos = append(infos, TargetInfo{
			Name:     sec.Name,
			Public:   cfg.IsPublic(sec.Name),
			Default:  sec.Name == cfg.DefaultTarget,
			Requires: stringList(sec.Field("required_targets")),
			Rules:    stringList(sec.Field(build.RulesSector)),
			Exec:     sec.Field("exec").Type() == mcfg.TypeString,
		})
	}
	return infos
}

func stringList(f *mcfg.Field) []string {
	l := f.List()
	if l == nil || l.Elem != mcfg.TypeString {
		return nil
	}
	return l.Strings()
}

// document converts file into plain values for the encoders.
func document(file *mcfg.File) Document {
	doc := Document{Path: file.Path, Sectors: make([]DocSector, 0, len(file.Sectors))}
	for _, sector := range file.Sectors {
		ds := DocSector{Name: sector.Name, Sections: make([]DocSection, 0, len(sector.Sections))}
		for _, sec := range sector.Sections {
			dsec := DocSection{Name: sec.Name, Fields: make([]DocField, 0, len(sec.Fields))}
			for _, f := range sec.Fields {
				dsec.Fields = append(dsec.Fields, docField(f))
			}
			ds.Sections = append(ds.Sections, dsec)
		}
		doc.Sectors = append(doc.Sectors, ds)
	}
	return doc
}

func docField(f *mcfg.Field) DocField {
	df := DocField{Name: f.Name, Type: f.Type().String()}
	if l := f.List(); l != nil {
		df.Type = "list " + l.Elem.String()
		items := make([]any, len(l.Items))
		for i, v := range l.Items {
			items[i] = plainValue(v)
		}
		df.Value = items
		return df
	}
	df.Value = plainValue(f.Value)
	return df
}

func plainValue(v mcfg.Value) any {
	if b, ok := v.(mcfg.Bool); ok {
		return bool(b)
	}
	if n, ok := mcfg.Int(v); ok {
		return n
	}
	return v.String()
}

// validate parses the build file at path and checks that every referenced
// target and rule exists.
func validate(ctx context.Context, w io.Writer, path string) error {
	file, cfg, err := loadBuildfile(ctx, path)
	if err != nil {
		return err
	}
	if err := checkReferences(file, cfg); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s is valid: %d targets, %d rules\n", path,
		sectionCount(file.Sector(build.TargetsSector)), sectionCount(file.Sector(build.RulesSector)))
	return nil
}

func checkReferences(file *mcfg.File, cfg build.Config) error {
	targets := file.Sector(build.TargetsSector)
	rules := file.Sector(build.RulesSector)

	missing := func(kind, name, from string) error {
		return errors.New(build.ErrCodeNotFound, fmt.Sprintf("%s %q referenced by %s does not exist", kind, name, from))
	}

	if targets.Section(cfg.DefaultTarget) == nil {
		return missing("target", cfg.DefaultTarget, "config default")
	}
	for _, name := range cfg.PublicTargets {
		if targets.Section(name) == nil {
			return missing("target", name, "config targets")
		}
	}

	if targets != nil {
		for _, sec := range targets.Sections {
			for _, dep := range stringList(sec.Field("required_targets")) {
				if targets.Section(dep) == nil {
					return missing("target", dep, "target "+sec.Name)
				}
			}
			for _, rule := range stringList(sec.Field(build.RulesSector)) {
				if rules.Section(rule) == nil {
					return missing("rule", rule, "target "+sec.Name)
				}
			}
		}
	}
	if rules != nil {
		for _, sec := range rules.Sections {
			for _, dep := range stringList(sec.Field(build.RulesSector)) {
				if rules.Section(dep) == nil {
					return missing("rule", dep, "rule "+sec.Name)
				}
			}
		}
	}
	return nil
}

func sectionCount(s *mcfg.Sector) int {
	if s == nil {
		return 0
	}
	return len(s.Sections)
}

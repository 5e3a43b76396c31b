package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/agilira/go-errors"

	"kiln/internal/build"
	"kiln/internal/mcfg"
)

func TestTargetInfos(t *testing.T) {
	file, cfg := parseSample(t)

	expected := []TargetInfo{
		{Name: "debug", Public: true, Default: true, Rules: []string{"objects"}, Exec: true},
		{Name: "release", Public: true, Requires: []string{"clean"}, Rules: []string{"objects"}},
		{Name: "clean", Exec: true},
	}
	got := targetInfos(file, cfg)
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("targetInfos() = %+v\nexpected %+v", got, expected)
	}

	if infos := targetInfos(mcfg.NewFile("empty"), cfg); infos != nil {
		t.Errorf("expected no targets, got %+v", infos)
	}
}

func TestDocument(t *testing.T) {
	file, err := mcfg.ParseString(`sector s
  section x
    str name 'kiln'
    bool on true
    i16 offset -12
    list u8 sizes 1, 2
  end
end
`)
	if err != nil {
		t.Fatalf("ParseString() unexpected error: %v", err)
	}

	doc := document(file)
	if len(doc.Sectors) != 1 || len(doc.Sectors[0].Sections) != 1 {
		t.Fatalf("unexpected document shape: %+v", doc)
	}
	expected := []DocField{
		{Name: "name", Type: "str", Value: "kiln"},
		{Name: "on", Type: "bool", Value: true},
		{Name: "offset", Type: "i16", Value: int64(-12)},
		{Name: "sizes", Type: "list u8", Value: []any{int64(1), int64(2)}},
	}
	if got := doc.Sectors[0].Sections[0].Fields; !reflect.DeepEqual(got, expected) {
		t.Errorf("fields = %+v\nexpected %+v", got, expected)
	}
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	path := writeBuildfile(t, sampleBuildfile)
	if err := validate(t.Context(), &out, path); err != nil {
		t.Fatalf("validate() unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "is valid: 3 targets, 1 rules") {
		t.Errorf("validate() output = %q", out.String())
	}
}

func TestCheckReferences(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		message string
	}{
		{"Missing required target", [2]string{"'clean'", "'cleanup'"}, `target "cleanup" referenced by target release`},
		{"Missing rule", [2]string{"list str c_rules 'objects'\n    str exec", "list str c_rules 'objs'\n    str exec"}, `rule "objs" referenced by target debug`},
		{"Missing default", [2]string{"str default 'debug'", "str default 'dev'"}, `target "dev" referenced by config default`},
		{"Missing public", [2]string{"'debug', 'release'", "'debug', 'profile'"}, `target "profile" referenced by config targets`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := strings.Replace(sampleBuildfile, tt.replace[0], tt.replace[1], 1)
			if src == sampleBuildfile {
				t.Fatalf("replacement %q did not apply", tt.replace[0])
			}
			file, err := mcfg.ParseString(src)
			if err != nil {
				t.Fatalf("ParseString() unexpected error: %v", err)
			}
			cfg, err := build.LoadConfig(t.Context(), file)
			if err != nil {
				t.Fatalf("LoadConfig() unexpected error: %v", err)
			}

			err = checkReferences(file, cfg)
			if err == nil {
				t.Fatal("checkReferences() expected error but got none")
			}
			if !errors.HasCode(err, build.ErrCodeNotFound) {
				t.Errorf("error %v lacks code %s", err, build.ErrCodeNotFound)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.message)
			}
		})
	}
}

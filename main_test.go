package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agilira/go-errors"

	"kiln/internal/build"
	"kiln/internal/mcfg"
)

const sampleBuildfile = `; sample project
sector config
  section kiln
    str default 'debug'
    list str targets 'debug', 'release'
    str build_type 'incremental'
  end
end

sector targets
  section debug
    str target_cflags '-g'
    list str c_rules 'objects'
    str exec 'echo link debug'
  end
  section release
    list str required_targets 'clean'
    list str c_rules 'objects'
  end
  section clean
    str exec 'echo clean'
  end
end

sector c_rules
  section objects
    list str input 'main', 'util'
    list str output 'main', 'util'
    str input_format 'src/$(%element%).c'
    str output_format 'obj/$(%element%).o'
    str exec 'echo cc $(%cflags%) -c $(%input%) -o $(%output%)'
  end
end
`

// writeBuildfile writes content to a build file in a fresh directory.
func writeBuildfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), defaultBuildfile)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write build file: %v", err)
	}
	return path
}

func parseSample(t *testing.T) (*mcfg.File, build.Config) {
	t.Helper()
	file, cfg, err := loadBuildfile(t.Context(), writeBuildfile(t, sampleBuildfile))
	if err != nil {
		t.Fatalf("loadBuildfile() unexpected error: %v", err)
	}
	return file, cfg
}

func TestLoadBuildfile(t *testing.T) {
	file, cfg := parseSample(t)

	if len(file.Sectors) != 3 {
		t.Errorf("expected 3 sectors, got %d", len(file.Sectors))
	}
	if cfg.DefaultTarget != "debug" {
		t.Errorf("DefaultTarget = %q", cfg.DefaultTarget)
	}
	if !cfg.IsPublic("release") || cfg.IsPublic("clean") {
		t.Errorf("unexpected public targets %v", cfg.PublicTargets)
	}
}

func TestLoadBuildfileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"Syntax", "sector s\nsection x\nstr a 'open\n", mcfg.ErrCodeSyntax},
		{"Duplicate", "sector s\nend\nsector s\nend\n", mcfg.ErrCodeDuplicateSector},
		{"Config type", "sector config\nsection kiln\nbool default true\nend\nend\n", build.ErrCodeWrongType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := loadBuildfile(t.Context(), writeBuildfile(t, tt.content))
			if err == nil {
				t.Fatalf("loadBuildfile() expected error but got none")
			}
			if !errors.HasCode(err, tt.code) {
				t.Errorf("loadBuildfile() error %v lacks code %s", err, tt.code)
			}
		})
	}

	_, _, err := loadBuildfile(t.Context(), filepath.Join(t.TempDir(), "missing.mcfg"))
	if !errors.HasCode(err, mcfg.ErrCodeOS) {
		t.Errorf("expected %s for a missing file, got %v", mcfg.ErrCodeOS, err)
	}
}

func TestDescribeParseError(t *testing.T) {
	path := writeBuildfile(t, "sector s\n  section x\n    u8 small 300\n  end\nend\n")
	_, _, err := loadBuildfile(t.Context(), path)
	if err == nil {
		t.Fatal("expected an out of bounds error")
	}

	msg := describe(err)
	if !strings.HasPrefix(msg, "integer out of bounds: ") {
		t.Errorf("describe() = %q, expected the error kind first", msg)
	}
	if !strings.Contains(msg, "3 |     u8 small 300") {
		t.Errorf("describe() = %q, expected the offending line", msg)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{errors.New(build.ErrCodeCircular, "a -> a"), "circular dependency"},
		{errors.New(build.ErrCodeProcessExit, "exit 2"), "process failed"},
		{errors.New(mcfg.ErrCodeOutOfBounds, "300"), "integer out of bounds"},
		{os.ErrNotExist, "error"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.expected {
			t.Errorf("errorKind(%v) = %q, expected %q", tt.err, got, tt.expected)
		}
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		err      error
		expected int
	}{
		{"Script status", 7, errors.New(build.ErrCodeProcessExit, "x"), 7},
		{"Usage", 0, errors.New(ErrCodeUsage, "bad flag"), exitUsage},
		{"Other", 0, errors.New(build.ErrCodeNotFound, "x"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitStatus(tt.status, tt.err); got != tt.expected {
				t.Errorf("exitStatus() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	err := commandError("build", errors.New(build.ErrCodeNotFound, "target \"x\" does not exist"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("commandError() = %v", err)
	}
}

func TestCLIApp(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &cli{stdout: &out, stderr: &errOut}
	if c.app() == nil {
		t.Fatal("app() returned nil")
	}
}

func BenchmarkLoadBuildfile(b *testing.B) {
	path := filepath.Join(b.TempDir(), defaultBuildfile)
	if err := os.WriteFile(path, []byte(sampleBuildfile), 0600); err != nil {
		b.Fatalf("Failed to write build file: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = loadBuildfile(b.Context(), path)
	}
}

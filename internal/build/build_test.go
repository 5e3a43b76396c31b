package build

import (
	"context"
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiln/internal/mcfg"
)

type invocation struct {
	Script string
	Label  string
}

// fakeExecutor records scripts and answers with a status per label.
type fakeExecutor struct {
	calls  []invocation
	status map[string]int
	err    error
	// during runs inside Execute, while bindings are in place.
	during func()
}

func (e *fakeExecutor) Execute(_ context.Context, script, label string) (int, error) {
	e.calls = append(e.calls, invocation{Script: script, Label: label})
	if e.during != nil {
		e.during()
	}
	if e.err != nil {
		return 1, e.err
	}
	return e.status[label], nil
}

func (e *fakeExecutor) labels() []string {
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = c.Label
	}
	return out
}

func (e *fakeExecutor) scripts() []string {
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = c.Script
	}
	return out
}

// freshness treats the listed "output|input" pairs as up to date.
type freshness map[string]bool

func (f freshness) IsNewer(a, b string) bool { return f[a+"|"+b] }

func newBuilder(t *testing.T, src string, cfg Config, fresh freshness) (*Builder, *fakeExecutor, *mcfg.File) {
	t.Helper()
	file, err := mcfg.ParseString(src)
	require.NoError(t, err)
	ex := &fakeExecutor{status: map[string]int{}}
	if fresh == nil {
		fresh = freshness{}
	}
	return New(file, cfg, WithExecutor(ex), WithFreshness(fresh)), ex, file
}

const cycleFile = `
sector targets
  section a
    list str required_targets 'b'
    str exec 'echo a'
  end
  section b
    list str required_targets 'a'
    str exec 'echo b'
  end
end
`

func TestTargetCycle(t *testing.T) {
	for _, ignore := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.IgnoreFailures = ignore
		b, ex, _ := newBuilder(t, cycleFile, cfg, nil)

		status, err := b.RunTarget(context.Background(), "a")
		require.Error(t, err)
		assert.Equal(t, 1, status)
		assert.True(t, errors.HasCode(err, ErrCodeCircular))
		assert.Contains(t, err.Error(), "a -> b -> a")
		assert.Empty(t, ex.calls)
		assert.Empty(t, b.targets)
	}
}

func TestRuleCycle(t *testing.T) {
	src := `
sector c_rules
  section x
    list str c_rules 'y'
  end
  section y
    list str c_rules 'x'
  end
end
`
	b, ex, _ := newBuilder(t, src, DefaultConfig(), nil)
	_, err := b.RunRule(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrCodeCircular))
	assert.Contains(t, err.Error(), "x -> y -> x")
	assert.Empty(t, ex.calls)
	assert.Empty(t, b.rules)
}

const orderFile = `
sector targets
  section all
    list str required_targets 'first', 'second', 'third'
    str exec 'echo all'
  end
  section first
    str exec 'echo first'
  end
  section second
    str exec 'echo second'
  end
  section third
    str exec 'echo third'
  end
end
`

func TestRequiredTargetsOrder(t *testing.T) {
	b, ex, _ := newBuilder(t, orderFile, DefaultConfig(), nil)
	status, err := b.RunTarget(context.Background(), "all")
	require.NoError(t, err)
	assert.Zero(t, status)
	assert.Equal(t, []string{"first", "second", "third", "all"}, ex.labels())
}

func TestFailureStopsSiblings(t *testing.T) {
	b, ex, _ := newBuilder(t, orderFile, DefaultConfig(), nil)
	ex.status["first"] = 2

	status, err := b.RunTarget(context.Background(), "all")
	require.Error(t, err)
	assert.Equal(t, 2, status)
	assert.True(t, errors.HasCode(err, ErrCodeProcessExit))
	assert.Equal(t, []string{"first"}, ex.labels())
}

func TestIgnoreFailuresKeepsWorstStatus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreFailures = true
	b, ex, _ := newBuilder(t, orderFile, cfg, nil)
	ex.status["first"] = 3
	ex.status["second"] = 7
	ex.status["third"] = 1

	status, err := b.RunTarget(context.Background(), "all")
	require.Error(t, err)
	assert.Equal(t, 7, status)
	assert.Contains(t, err.Error(), "second exited with status 7")
	assert.Equal(t, []string{"first", "second", "third", "all"}, ex.labels())
}

func TestIgnoreFailuresRunsTargetAfterFailedDependency(t *testing.T) {
	src := `
sector targets
  section top
    list str required_targets 'bad', 'good'
    str exec 'echo top'
  end
  section bad
    str exec 'false'
  end
  section good
    str exec 'echo good'
  end
end
`
	cfg := DefaultConfig()
	cfg.IgnoreFailures = true
	b, ex, _ := newBuilder(t, src, cfg, nil)
	ex.status["bad"] = 2

	status, err := b.RunTarget(context.Background(), "top")
	require.Error(t, err)
	assert.Equal(t, 2, status)
	assert.True(t, errors.HasCode(err, ErrCodeProcessExit))
	assert.Equal(t, []string{"bad", "good", "top"}, ex.labels())

	b, ex, _ = newBuilder(t, src, DefaultConfig(), nil)
	ex.status["bad"] = 2
	status, err = b.RunTarget(context.Background(), "top")
	require.Error(t, err)
	assert.Equal(t, 2, status)
	assert.Equal(t, []string{"bad"}, ex.labels())
}

func TestRunBuildsDefaultTargetOutsidePublicList(t *testing.T) {
	src := `
sector config
  section kiln
    str default 'all'
  end
end
sector targets
  section all
    str exec 'make all'
  end
end
`
	file, err := mcfg.ParseString(src)
	require.NoError(t, err)
	cfg, err := LoadConfig(context.Background(), file)
	require.NoError(t, err)

	ex := &fakeExecutor{status: map[string]int{}}
	status, err := New(file, cfg, WithExecutor(ex)).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, status)
	assert.Equal(t, []string{"make all"}, ex.scripts())
}

func TestMissingRequiredTarget(t *testing.T) {
	src := `
sector targets
  section all
    list str required_targets 'ghost', 'real'
  end
  section real
    str exec 'true'
  end
end
`
	b, ex, _ := newBuilder(t, src, DefaultConfig(), nil)
	status, err := b.RunTarget(context.Background(), "all")
	require.Error(t, err)
	assert.Equal(t, 1, status)
	assert.True(t, errors.HasCode(err, ErrCodeNotFound))
	assert.Empty(t, ex.calls)

	cfg := DefaultConfig()
	cfg.IgnoreFailures = true
	b, ex, _ = newBuilder(t, src, cfg, nil)
	status, _ = b.RunTarget(context.Background(), "all")
	assert.Equal(t, 1, status)
	assert.Equal(t, []string{"real"}, ex.labels())
}

func TestRunSelectsPublicTarget(t *testing.T) {
	src := `
sector config
  section kiln
    str default 'release'
    list str targets 'release'
  end
end
sector targets
  section release
    str exec 'make release'
  end
  section secret
    str exec 'make secret'
  end
end
`
	file, err := mcfg.ParseString(src)
	require.NoError(t, err)
	cfg, err := LoadConfig(context.Background(), file)
	require.NoError(t, err)

	ex := &fakeExecutor{status: map[string]int{}}
	status, err := New(file, cfg, WithExecutor(ex)).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, status)
	assert.Equal(t, []string{"make release"}, ex.scripts())

	cfg.Target = "secret"
	status, err = New(file, cfg, WithExecutor(ex)).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, status)
	assert.True(t, errors.HasCode(err, ErrCodePrivateTarget))
	assert.Len(t, ex.calls, 1)
}

func TestNoTargetsSector(t *testing.T) {
	b, _, _ := newBuilder(t, "sector c_rules\nend\n", DefaultConfig(), nil)
	_, err := b.RunTarget(context.Background(), "debug")
	assert.True(t, errors.HasCode(err, ErrCodeNotFound))

	_, err = b.RunRule(context.Background(), "objects")
	assert.True(t, errors.HasCode(err, ErrCodeNotFound))
}

func TestLinkedFields(t *testing.T) {
	src := `
sector targets
  section debug
    str target_cflags '-g -O0'
    list str target_defs 'DEBUG', 'TRACE'
    list str required_targets 'inner'
    str exec 'cc $(%cflags%) -D$(%defs%)'
  end
  section inner
    str target_cflags '-O2'
    str exec 'inner $(%cflags%)'
  end
end
`
	b, ex, file := newBuilder(t, src, DefaultConfig(), nil)
	var seen []string
	ex.during = func() {
		if f := file.Dynfield("cflags"); f != nil {
			seen = append(seen, f.Value.String())
		}
	}

	status, err := b.RunTarget(context.Background(), "debug")
	require.NoError(t, err)
	assert.Zero(t, status)
	assert.Equal(t, []string{"inner -O2", "cc -g -O0 -DDEBUG -DTRACE"}, ex.scripts())
	assert.Equal(t, []string{"-O2", "-g -O0"}, seen)

	assert.Nil(t, file.Dynfield("cflags"))
	assert.Nil(t, file.Dynfield("defs"))
	assert.Empty(t, file.Dynfields())
}

func TestTargetWithoutExec(t *testing.T) {
	src := `
sector targets
  section group
    list str c_rules 'noop'
  end
end
sector c_rules
  section noop
    str exec 'true'
    str input_format '$(%element%)'
    str output_format '$(%element%)'
    list str input 'a'
    list str output 'b'
  end
end
`
	b, ex, _ := newBuilder(t, src, DefaultConfig(), nil)
	status, err := b.RunTarget(context.Background(), "group")
	require.NoError(t, err)
	assert.Zero(t, status)
	assert.Equal(t, []string{"noop"}, ex.labels())
}

func TestTargetFieldTypes(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.ErrorCode
	}{
		{"exec not string", "bool exec true", ErrCodeWrongType},
		{"required_targets not list", "str required_targets 'x'", ErrCodeWrongType},
		{"c_rules not string list", "list u8 c_rules 1, 2", ErrCodeWrongType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "sector targets\nsection t\n" + tt.body + "\nend\nend\n"
			b, ex, _ := newBuilder(t, src, DefaultConfig(), nil)
			status, err := b.RunTarget(context.Background(), "t")
			require.Error(t, err)
			assert.Equal(t, 1, status)
			assert.True(t, errors.HasCode(err, tt.code), err.Error())
			assert.Empty(t, ex.calls)
		})
	}
}

func TestExecutorError(t *testing.T) {
	b, ex, _ := newBuilder(t, orderFile, DefaultConfig(), nil)
	ex.err = assert.AnError

	status, err := b.RunTarget(context.Background(), "first")
	require.Error(t, err)
	assert.Equal(t, 1, status)
	assert.True(t, errors.HasCode(err, ErrCodeSystem))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResultFold(t *testing.T) {
	var r result
	r.fold(0, nil)
	assert.False(t, r.failed())

	first := errors.New(ErrCodeProcessExit, "first")
	r.fold(2, first)
	r.fold(1, errors.New(ErrCodeProcessExit, "second"))
	status, err := r.unwrap()
	assert.Equal(t, 2, status)
	assert.Equal(t, error(first), err)

	r.fold(0, errors.New(ErrCodeNotFound, "missing"))
	status, _ = r.unwrap()
	assert.Equal(t, 2, status)
}

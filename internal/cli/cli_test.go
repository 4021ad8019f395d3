package cli

import (
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	townsTxt  = "../graphfile/testdata/towns.txt"
	townsJSON = "../graphfile/testdata/towns.json"
)

const defaultOutput = `Output #1: 9
Output #2: 5
Output #3: 13
Output #4: 22
Output #5: NO SUCH ROUTE
Output #6: 2
Output #7: 3
Output #8: 9
Output #9: 9
Output #10: 7
`

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	c, err := New(args, &stdout, &stderr)
	if err != nil {
		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr), "unexpected error type %T", err)
		stderr.WriteString(exitErr.Message)
		return exitErr.Code, stdout.String(), stderr.String()
	}

	code := c.Run()
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_Usage(t *testing.T) {
	t.Run("help exits cleanly", func(t *testing.T) {
		code, stdout, stderr := run(t, "-h")

		assert.Equal(t, ExitOK, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "route answers questions")
		assert.Contains(t, stderr, "-graph_file")
	})

	t.Run("unknown flag", func(t *testing.T) {
		code, _, stderr := run(t, "-this-is-not-a-flag")

		assert.Equal(t, ExitUsage, code)
		assert.Contains(t, stderr, "flag provided but not defined")
	})

	t.Run("missing graph file", func(t *testing.T) {
		code, _, stderr := run(t)

		assert.Equal(t, ExitUsage, code)
		assert.Contains(t, stderr, "no graph file given")
	})

	t.Run("invalid format", func(t *testing.T) {
		code, _, stderr := run(t, "-format", "%z", "--graph_file", townsTxt)

		assert.Equal(t, ExitUsage, code)
		assert.Contains(t, stderr, "invalid format string")
	})

	t.Run("invalid query", func(t *testing.T) {
		code, _, stderr := run(t, "-query", "trips A-C", "--graph_file", townsTxt)

		assert.Equal(t, ExitUsage, code)
		assert.Contains(t, stderr, "invalid query")
	})

	t.Run("missing queries file", func(t *testing.T) {
		code, _, stderr := run(t, "-queries", "missing.queries", "--graph_file", townsTxt)

		assert.Equal(t, ExitUsage, code)
		assert.Contains(t, stderr, "failed to open queries file")
	})

	t.Run("invalid glob", func(t *testing.T) {
		code, _, stderr := run(t, "-glob", "[")

		assert.Equal(t, ExitUsage, code)
		assert.Contains(t, stderr, "glob pattern invalid")
	})
}

func TestRun_DefaultQueries(t *testing.T) {
	code, stdout, stderr := run(t, "--graph_file", townsTxt)

	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, defaultOutput, stdout)
	assert.Empty(t, stderr)
}

func TestRun_Deterministic(t *testing.T) {
	args := []string{"-format", "%N\n%M\n%q\n", "-query", "list C-C max-distance=30", "-query", "shortest A-C", townsJSON}

	_, first, _ := run(t, args...)
	for i := 0; i < 5; i++ {
		_, again, _ := run(t, args...)
		require.Equal(t, first, again)
	}
	assert.Contains(t, first, "Output #1: C-E-B-C (9), C-D-C (16)")
	assert.Contains(t, first, "Output #2: 9")
}

func TestRun_MissingGraphFile(t *testing.T) {
	code, stdout, stderr := run(t, "--graph_file", filepath.Join(t.TempDir(), "missing.txt"))

	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "no such file or directory")
}

func TestRun_InvalidGraphFile(t *testing.T) {
	path := writeFile(t, "bad.txt", "AB5, BC")

	code, stdout, stderr := run(t, "--graph_file", path)

	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "invalid graph definition")
}

func TestRun_MultipleFiles(t *testing.T) {
	code, stdout, stderr := run(t, "-query", "distance A-B-C", "--graph_file", townsTxt, townsJSON)

	require.Equal(t, ExitOK, code, stderr)
	expected := "==> " + townsTxt + " <==\nOutput #1: 9\n\n==> " + townsJSON + " <==\nOutput #1: 9\n"
	assert.Equal(t, expected, stdout)
}

func TestRun_QueriesFile(t *testing.T) {
	queries := writeFile(t, "towns.queries", "# reference\ndistance A-D\n\ntrips A-C stops=4\n")

	code, stdout, stderr := run(t, "-queries", queries, "-query", "shortest B-A", "--graph_file", townsTxt)

	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, "Output #1: 5\nOutput #2: 3\nOutput #3: NO SUCH ROUTE\n", stdout)
}

func TestRun_OutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	ring := writeFile(t, "ring.txt", "AB1, BA1")

	code, stdout, stderr := run(t, "-output-dir", dir, "-format", "%n %m %w\n", townsTxt, ring)

	require.Equal(t, ExitOK, code, stderr)
	assert.Empty(t, stdout)

	content, err := os.ReadFile(filepath.Join(dir, "towns.out"))
	require.NoError(t, err)
	assert.Equal(t, "5 9 48\n", string(content))

	content, err = os.ReadFile(filepath.Join(dir, "ring.out"))
	require.NoError(t, err)
	assert.Equal(t, "2 2 2\n", string(content))
}

func TestRun_Glob(t *testing.T) {
	code, stdout, stderr := run(t, "-glob", "../graphfile/testdata/towns.y*ml", "-query", "shortest B-B")

	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, "Output #1: 9\n", stdout)
}

func TestRun_Environment(t *testing.T) {
	t.Setenv(envGraphFile, townsTxt)
	t.Setenv(envFormat, "%n towns\n")

	code, stdout, stderr := run(t)

	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, "5 towns\n", stdout)
}

func TestRun_EmptyFormatUsesDefault(t *testing.T) {
	code, stdout, stderr := run(t, "-format", "", "--graph_file", townsTxt)

	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, defaultOutput, stdout)
	assert.Equal(t, "%q\n", defaultFormat)
}

func TestRun_Verbose(t *testing.T) {
	code, stdout, stderr := run(t, "-verbose", "-query", "distance A-E-D", "--graph_file", townsTxt)

	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, "Output #1: NO SUCH ROUTE\n", stdout)
	assert.Contains(t, stderr, "Progress:")
	assert.Contains(t, stderr, "Loaded graph")
	assert.Contains(t, stderr, "No such route")
}

func TestRun_Profiler(t *testing.T) {
	code, stdout, stderr := run(t, "-profiler", "127.0.0.1:0", "--graph_file", townsTxt)

	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, defaultOutput, stdout)
}

func TestRun_ProfilerAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	code, stdout, stderr := run(t, "-profiler", ln.Addr().String(), "--graph_file", townsTxt)

	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Failed to start pprof server")
}

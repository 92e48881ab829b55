package testutil

import (
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertOperationRan checks the log output of a harness run for a completed
// dispatch of opType at path (e.g. "0.1").
func AssertOperationRan(t *testing.T, result *HarnessResult, path, opType string) {
	t.Helper()
	require.True(t, operationLogged(result.LogOutput, path, opType),
		"expected log output for operation '%s' at %s was not found in logs", opType, path,
	)
}

// AssertOperationNotRan is the inverse of AssertOperationRan.
func AssertOperationNotRan(t *testing.T, result *HarnessResult, path, opType string) {
	t.Helper()
	require.False(t, operationLogged(result.LogOutput, path, opType),
		"operation '%s' at %s was not expected to run", opType, path,
	)
}

func operationLogged(logs, path, opType string) bool {
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, `msg="Operation finished."`) &&
			strings.Contains(line, " path="+path+" ") &&
			strings.Contains(line, " operation="+opType+" ") {
			return true
		}
	}
	return false
}

// AssertOutputFiles checks that dir holds exactly the named files.
func AssertOutputFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	want := append([]string(nil), names...)
	sort.Strings(want)
	sort.Strings(got)
	require.Equal(t, want, got)
}

// OutputNames returns the sorted file names in dir.
func OutputNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

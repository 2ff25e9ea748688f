package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input string
		want  Target
	}{
		{"duplicates", TargetDuplicates},
		{"cache", TargetCache},
		{"build", TargetBuild},
		{"temp", TargetTemp},
		{"logs", TargetLogs},
		{"CACHE", TargetCache},
		{"  temp  ", TargetTemp},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTarget(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTargetUnknown(t *testing.T) {
	_, err := ParseTarget("registry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry")
	assert.Contains(t, err.Error(), "duplicates")
}

func TestTargetsComplete(t *testing.T) {
	all := Targets()
	assert.Len(t, all, 5)
	assert.Equal(t, TargetDuplicates, all[0])
}

func TestDuplicatesHasNoPathSet(t *testing.T) {
	assert.Nil(t, TargetDuplicates.Paths())
}

func TestPathsOnlyExistingDirectories(t *testing.T) {
	for _, target := range []Target{TargetCache, TargetBuild, TargetTemp, TargetLogs} {
		for _, p := range target.Paths() {
			assert.DirExists(t, p, "target %s", target)
		}
	}
}

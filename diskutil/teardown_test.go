package diskutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeardownNothingToDo(t *testing.T) {
	env := newTestEnv(t)

	err := env.manager.Teardown("cryptdata")

	require.NoError(t, err)
	assert.Empty(t, env.runner.calls)
}

func TestTeardownUnmountAndClose(t *testing.T) {
	env := newTestEnv(t)
	env.activateMapper(t, "cryptdata")
	device := env.manager.Paths.MapperDevice("cryptdata")
	env.writeMountTable(t, device+" /mnt/data ext4 rw 0 0\n")

	err := env.manager.Teardown("cryptdata")

	require.NoError(t, err)
	require.Len(t, env.runner.calls, 2)
	assert.Equal(t, []string{"umount", device}, env.runner.calls[0])
	assert.Equal(t, []string{"cryptsetup", "close", "cryptdata"}, env.runner.calls[1])
}

func TestTeardownUnmountFailureSkipsClose(t *testing.T) {
	env := newTestEnv(t)
	env.activateMapper(t, "cryptdata")
	device := env.manager.Paths.MapperDevice("cryptdata")
	env.writeMountTable(t, device+" /mnt/data ext4 rw 0 0\n")
	env.runner.failOn["umount"] = errors.New("target is busy")

	err := env.manager.Teardown("cryptdata")

	require.Error(t, err)
	require.Len(t, env.runner.calls, 1)
	assert.Equal(t, "umount", env.runner.calls[0][0])
}

func TestTeardownCloseFailure(t *testing.T) {
	env := newTestEnv(t)
	env.activateMapper(t, "cryptdata")
	env.runner.failOn["cryptsetup"] = errors.New("device busy")

	err := env.manager.Teardown("cryptdata")

	require.Error(t, err)
	require.Len(t, env.runner.calls, 1)
	assert.Equal(t, "cryptsetup", env.runner.calls[0][0])
}

func TestTeardownCloseOnlyWhenNotMounted(t *testing.T) {
	env := newTestEnv(t)
	env.activateMapper(t, "cryptdata")

	err := env.manager.Teardown("cryptdata")

	require.NoError(t, err)
	require.Len(t, env.runner.calls, 1)
	assert.Equal(t, []string{"cryptsetup", "close", "cryptdata"}, env.runner.calls[0])
}

// Aggregating two independent teardowns must fail when either fails. The
// combination is logical, never arithmetic on exit codes.
func TestTeardownAggregationTruthTable(t *testing.T) {
	tests := []struct {
		name       string
		firstFail  bool
		secondFail bool
		wantFail   bool
	}{
		{"both succeed", false, false, false},
		{"first fails", true, false, true},
		{"second fails", false, true, true},
		{"both fail", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.activateMapper(t, "vol1")
			env.activateMapper(t, "vol2")
			env.runner.failWhen = func(call []string) error {
				mapper := call[len(call)-1]
				if (mapper == "vol1" && tt.firstFail) || (mapper == "vol2" && tt.secondFail) {
					return errors.New("device busy")
				}
				return nil
			}

			ok := true
			for _, mapper := range []string{"vol1", "vol2"} {
				if env.manager.Teardown(mapper) != nil {
					ok = false
				}
			}
			assert.Equal(t, tt.wantFail, !ok)
		})
	}
}

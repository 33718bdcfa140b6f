package launcher

import (
	"errors"
	"os/exec"
	"testing"

	"switchclaude/config/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sel = models.Selection{
	Provider: "glm",
	BaseURL:  "https://open.bigmodel.cn/api/anthropic",
	Token:    "sk-abc123",
	Model:    "glm-4.6",
}

func testLauncher(found bool) *Launcher {
	l := New("")
	l.lookPath = func(name string) (string, error) {
		if !found {
			return "", exec.ErrNotFound
		}
		return "/usr/local/bin/" + name, nil
	}
	l.environ = func() []string {
		return []string{
			"PATH=/usr/bin",
			"ANTHROPIC_API_KEY=sk-ant-old",
			"ANTHROPIC_MODEL=claude-opus",
			"ANTHROPIC_SMALL_FAST_MODEL=claude-haiku",
			"HOME=/home/u",
		}
	}
	return l
}

func TestPrepare(t *testing.T) {
	plan, err := testLauncher(true).Prepare(sel, "")
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/claude", plan.Path)
	assert.Equal(t, []string{"claude"}, plan.Args)
	assert.Equal(t, []string{
		"PATH=/usr/bin",
		"HOME=/home/u",
		"ANTHROPIC_BASE_URL=https://open.bigmodel.cn/api/anthropic",
		"ANTHROPIC_AUTH_TOKEN=sk-abc123",
		"ANTHROPIC_MODEL=glm-4.6",
	}, plan.Env)
}

func TestPrepareWithMessage(t *testing.T) {
	plan, err := testLauncher(true).Prepare(sel, "  explain this repo ")
	require.NoError(t, err)
	assert.Equal(t, []string{"claude", "explain this repo"}, plan.Args)
}

func TestPrepareMissingDependency(t *testing.T) {
	_, err := testLauncher(false).Prepare(sel, "hi")

	var de *DependencyError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "claude", de.Command)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestExec(t *testing.T) {
	l := testLauncher(true)
	var got *Plan
	l.exec = func(p *Plan) error {
		got = p
		return nil
	}

	plan, err := l.Prepare(sel, "")
	require.NoError(t, err)
	require.NoError(t, l.Exec(plan))
	assert.Same(t, plan, got)

	l.exec = func(*Plan) error { return errors.New("exec format error") }
	err = l.Exec(plan)
	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "/usr/local/bin/claude", le.Path)

	require.Error(t, l.Exec(nil))
}

func TestNewCustomCommand(t *testing.T) {
	assert.Equal(t, "claude", New("").Command())
	assert.Equal(t, "claude-beta", New("claude-beta").Command())
}

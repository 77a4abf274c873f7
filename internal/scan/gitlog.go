package scan

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"govscan/internal/aidetect"
)

// CommitSource is implemented by sources that can attribute a file to the
// commit that last touched it. Sources without history (uploaded archives)
// simply don't implement it and the metadata signal stays absent.
type CommitSource interface {
	CommitContext(ctx context.Context, path string) aidetect.CommitContext
}

const gitLogTimeout = 5 * time.Second

// gitLog reads commit messages from a local checkout's history.
type gitLog struct {
	root string
}

// newGitLog returns nil when root is not a git checkout or git is not on
// PATH. All methods are nil-receiver safe.
func newGitLog(root string) *gitLog {
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		return nil
	}
	if _, err := exec.LookPath("git"); err != nil {
		return nil
	}
	return &gitLog{root: root}
}

// lastMessage returns the full message of the last commit touching path.
// Any failure yields an empty message rather than an error: history is an
// optional signal.
func (g *gitLog) lastMessage(ctx context.Context, path string) string {
	if g == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, gitLogTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "log", "-1", "--format=%B", "--", path)
	cmd.Dir = g.root

	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// CommitContext returns the commit text of the last commit touching path;
// empty when the checkout has no usable git history.
func (d *DirSource) CommitContext(ctx context.Context, path string) aidetect.CommitContext {
	return aidetect.CommitContext{CommitMessage: d.git.lastMessage(ctx, path)}
}

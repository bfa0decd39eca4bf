package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTextRunsClipboardCommand(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "clip.txt")
	committer := NewCommitter([]string{"sh", "-c", "cat > " + target}, nil, false, nil)

	err := committer.WriteText(context.Background(), "hello world")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestWriteTextEmptyIsNoOp(t *testing.T) {
	committer := NewCommitter([]string{"false"}, nil, false, nil)
	require.NoError(t, committer.WriteText(context.Background(), ""))
}

func TestWriteTextCommandFailure(t *testing.T) {
	committer := NewCommitter([]string{"false"}, nil, false, nil)
	err := committer.WriteText(context.Background(), "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
}

func TestWriteTextEmptyArgv(t *testing.T) {
	committer := NewCommitter(nil, nil, false, nil)
	err := committer.WriteText(context.Background(), "text")
	require.Error(t, err)
}

func TestAttemptPasteDisabled(t *testing.T) {
	committer := NewCommitter([]string{"true"}, []string{"true"}, false, nil)
	attempt := committer.AttemptPaste(context.Background())
	require.False(t, attempt.Pasted)
	require.Equal(t, "paste disabled", attempt.Reason)
}

func TestAttemptPasteNoCommand(t *testing.T) {
	committer := NewCommitter([]string{"true"}, nil, true, nil)
	attempt := committer.AttemptPaste(context.Background())
	require.False(t, attempt.Pasted)
	require.Equal(t, "no paste command configured", attempt.Reason)
}

func TestAttemptPasteSuccess(t *testing.T) {
	committer := NewCommitter([]string{"true"}, []string{"true"}, true, nil)
	attempt := committer.AttemptPaste(context.Background())
	require.True(t, attempt.Pasted)
	require.Empty(t, attempt.Reason)
}

func TestAttemptPasteFailureReportsReason(t *testing.T) {
	committer := NewCommitter([]string{"true"}, []string{"false"}, true, nil)
	attempt := committer.AttemptPaste(context.Background())
	require.False(t, attempt.Pasted)
	require.NotEmpty(t, attempt.Reason)
}

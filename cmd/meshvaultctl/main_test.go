package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// resetState clears the package-level peer singleton between tests, since
// ctlInit only builds it once per process.
func resetState() {
	ctlMu.Lock()
	defer ctlMu.Unlock()
	ctl = nil
}

func run(t *testing.T, home string, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--home", home}, args...))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	require.NoError(t, err, out.String())
	return out.String()
}

func TestBucketCreateFsRoundTrip(t *testing.T) {
	resetState()
	home := t.TempDir()

	run(t, home, "bucket", "create", "photos")
	list := run(t, home, "bucket", "list")
	require.NotEmpty(t, list)

	buckets := ctl.ListBuckets()
	require.Len(t, buckets, 1)
	id := buckets[0].String()

	run(t, home, "fs", "mkdir", id, "/docs")

	src := filepath.Join(home, "note.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello meshvault"), 0o644))
	run(t, home, "fs", "add", id, "/docs/note.txt", src)

	lsOut := run(t, home, "fs", "ls", id, "/docs")
	require.Contains(t, lsOut, "note.txt")

	catOut := run(t, home, "fs", "cat", id, "/docs/note.txt")
	require.Equal(t, "hello meshvault", catOut)
}

func TestBucketStatePersistsAcrossProcesses(t *testing.T) {
	resetState()
	home := t.TempDir()

	run(t, home, "bucket", "create", "versions")
	buckets := ctl.ListBuckets()
	require.Len(t, buckets, 1)
	id := buckets[0].String()

	// Simulate a second invocation of the binary against the same home.
	resetState()
	list := run(t, home, "bucket", "list")
	require.Contains(t, list, id)
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	_, err := parseRole("admin")
	require.Error(t, err)

	role, err := parseRole("mirror")
	require.NoError(t, err)
	require.Equal(t, "Mirror", string(role))
}

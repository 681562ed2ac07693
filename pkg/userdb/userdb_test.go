package userdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passwd = `# comment
root:x:0:0:root:/root:/bin/bash
daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin
1000:x:1001:1001::/home/numeric:/bin/sh
alice:x:1000:1000:Alice,,,:/home/alice:/bin/zsh
broken:line
+nis
`

const group = `root:x:0:
daemon:x:1:
alice:x:1000:
wheel:x:10:root, alice
audio:*:29:bob
1001:x:1001:
`

func testDB(t *testing.T) DB {
	dir := t.TempDir()
	db := DB{
		PasswdFile: filepath.Join(dir, "passwd"),
		GroupFile:  filepath.Join(dir, "group"),
	}
	require.NoError(t, os.WriteFile(db.PasswdFile, []byte(passwd), 0o644))
	require.NoError(t, os.WriteFile(db.GroupFile, []byte(group), 0o644))
	return db
}

func TestLookupUser(t *testing.T) {
	db := testDB(t)

	u, err := db.LookupUser("alice")
	require.NoError(t, err)
	assert.Equal(t, &User{
		Name:    "alice",
		Passwd:  "x",
		UID:     1000,
		GID:     1000,
		Gecos:   "Alice,,,",
		HomeDir: "/home/alice",
		Shell:   "/bin/zsh",
	}, u)

	u, err = db.LookupUser("1")
	require.NoError(t, err)
	assert.Equal(t, "daemon", u.Name)

	// a name match wins over a uid match
	u, err = db.LookupUser("1000")
	require.NoError(t, err)
	assert.Equal(t, 1001, u.UID)

	_, err = db.LookupUser("bob")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.LookupUser("broken")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupGroup(t *testing.T) {
	db := testDB(t)

	g, err := db.LookupGroup("wheel")
	require.NoError(t, err)
	assert.Equal(t, 10, g.GID)
	assert.Equal(t, []string{"root", "alice"}, g.Members)

	g, err = db.LookupGroup("29")
	require.NoError(t, err)
	assert.Equal(t, "audio", g.Name)
	assert.Equal(t, "*", g.Passwd)

	g, err = db.LookupGroup("root")
	require.NoError(t, err)
	assert.Empty(t, g.Members)

	_, err = db.LookupGroup("video")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupIDs(t *testing.T) {
	db := testDB(t)

	u, err := db.LookupUser("alice")
	require.NoError(t, err)
	gids, err := db.GroupIDs(u)
	require.NoError(t, err)
	assert.Equal(t, []int{1000, 10}, gids)
}

func TestBadFields(t *testing.T) {
	dir := t.TempDir()
	db := DB{PasswdFile: filepath.Join(dir, "passwd")}
	require.NoError(t, os.WriteFile(db.PasswdFile, []byte("eve:x:abc:0::/:/bin/sh\n"), 0o644))

	_, err := db.LookupUser("eve")
	assert.ErrorContains(t, err, "bad uid")
}

func TestMissingFile(t *testing.T) {
	db := DB{PasswdFile: filepath.Join(t.TempDir(), "none")}
	_, err := db.LookupUser("root")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLookupSystemRoot(t *testing.T) {
	if _, err := os.Stat(Default.PasswdFile); err != nil {
		t.Skip("no passwd database")
	}
	u, err := LookupUser("0")
	require.NoError(t, err)
	assert.Equal(t, 0, u.UID)
}

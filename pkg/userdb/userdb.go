// Package userdb resolves users and groups from the passwd / group databases.
//
// Lookups read the files directly so they behave the same with or without
// cgo and can be pointed at an alternative root (e.g. a chroot directory).
package userdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// ErrNotFound is returned when no entry matches the lookup
var ErrNotFound = errors.New("userdb: not found")

// User is one passwd entry
type User struct {
	Name    string
	Passwd  string
	UID     int
	GID     int
	Gecos   string
	HomeDir string
	Shell   string
}

// Group is one group entry
type Group struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

// DB locates the database files
type DB struct {
	PasswdFile string
	GroupFile  string
}

// Default is the system database
var Default = DB{
	PasswdFile: "/etc/passwd",
	GroupFile:  "/etc/group",
}

// LookupUser finds a user by name, or by uid when nameOrID is numeric and
// no user carries it as a name
func LookupUser(nameOrID string) (*User, error) {
	return Default.LookupUser(nameOrID)
}

// LookupGroup finds a group by name, or by gid when nameOrID is numeric and
// no group carries it as a name
func LookupGroup(nameOrID string) (*Group, error) {
	return Default.LookupGroup(nameOrID)
}

// LookupUser finds a user in db
func (db DB) LookupUser(nameOrID string) (*User, error) {
	var byID *User
	id, idErr := strconv.Atoi(nameOrID)
	var found *User
	err := scan(db.PasswdFile, 7, func(f []string) (bool, error) {
		u, err := parseUser(f)
		if err != nil {
			return false, err
		}
		if u.Name == nameOrID {
			found = u
			return true, nil
		}
		if idErr == nil && byID == nil && u.UID == id {
			byID = u
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = byID
	}
	if found == nil {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, nameOrID)
	}
	return found, nil
}

// LookupGroup finds a group in db
func (db DB) LookupGroup(nameOrID string) (*Group, error) {
	var byID *Group
	id, idErr := strconv.Atoi(nameOrID)
	var found *Group
	err := scan(db.GroupFile, 4, func(f []string) (bool, error) {
		g, err := parseGroup(f)
		if err != nil {
			return false, err
		}
		if g.Name == nameOrID {
			found = g
			return true, nil
		}
		if idErr == nil && byID == nil && g.GID == id {
			byID = g
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = byID
	}
	if found == nil {
		return nil, fmt.Errorf("%w: group %q", ErrNotFound, nameOrID)
	}
	return found, nil
}

// GroupIDs lists the primary gid of u followed by the gids of every group
// naming u as a member
func (db DB) GroupIDs(u *User) ([]int, error) {
	gids := []int{u.GID}
	err := scan(db.GroupFile, 4, func(f []string) (bool, error) {
		g, err := parseGroup(f)
		if err != nil {
			return false, err
		}
		if slices.Contains(g.Members, u.Name) && !slices.Contains(gids, g.GID) {
			gids = append(gids, g.GID)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gids, nil
}

func parseUser(f []string) (*User, error) {
	uid, err := strconv.Atoi(f[2])
	if err != nil {
		return nil, fmt.Errorf("userdb: user %q: bad uid %q", f[0], f[2])
	}
	gid, err := strconv.Atoi(f[3])
	if err != nil {
		return nil, fmt.Errorf("userdb: user %q: bad gid %q", f[0], f[3])
	}
	return &User{
		Name:    f[0],
		Passwd:  f[1],
		UID:     uid,
		GID:     gid,
		Gecos:   f[4],
		HomeDir: f[5],
		Shell:   f[6],
	}, nil
}

func parseGroup(f []string) (*Group, error) {
	gid, err := strconv.Atoi(f[2])
	if err != nil {
		return nil, fmt.Errorf("userdb: group %q: bad gid %q", f[0], f[2])
	}
	var members []string
	for _, m := range strings.Split(f[3], ",") {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}
	return &Group{
		Name:    f[0],
		Passwd:  f[1],
		GID:     gid,
		Members: members,
	}, nil
}

// scan calls fn with the fields of every well-formed line until fn reports done
func scan(path string, nfield int, fn func([]string) (bool, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("userdb: %w", err)
	}
	defer f.Close()
	return scanReader(f, nfield, fn)
}

func scanReader(r io.Reader, nfield int, fn func([]string) (bool, error)) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		// skip comments and NIS compat entries
		if line == "" || line[0] == '#' || line[0] == '+' || line[0] == '-' {
			continue
		}
		fields := strings.SplitN(line, ":", nfield)
		if len(fields) != nfield {
			continue
		}
		done, err := fn(fields)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return s.Err()
}

package manifest

import (
	"archive/tar"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/deb-unpack/deb"
	"github.com/etnz/deb-unpack/internal/debtest"
)

func parse(t *testing.T, s string) *deb.Control {
	t.Helper()
	c, err := deb.ParseControl(strings.NewReader(s))
	require.NoError(t, err)
	return c
}

func TestFromControl(t *testing.T) {
	tests := []struct {
		name    string
		control string
		wantErr bool
		check   func(t *testing.T, info *PackageInstallInfo)
	}{
		{
			name:    "full",
			control: "Package: foo\nVersion: 1.0\nArchitecture: amd64\nDescription: short\n long\n",
			check: func(t *testing.T, info *PackageInstallInfo) {
				assert.Equal(t, "foo", info.Name)
				assert.Equal(t, "1.0", info.Version)
				require.NotNil(t, info.Architecture)
				assert.Equal(t, "amd64", *info.Architecture)
				require.NotNil(t, info.Description)
				assert.Equal(t, "short\nlong", *info.Description)
				assert.Nil(t, info.Files)
				assert.False(t, info.InstallFinished)
			},
		},
		{
			name:    "optional fields absent",
			control: "Package: foo\nVersion: 1.0\n",
			check: func(t *testing.T, info *PackageInstallInfo) {
				assert.Nil(t, info.Architecture)
				assert.Nil(t, info.Description)
			},
		},
		{name: "missing package", control: "Version: 1.0\n", wantErr: true},
		{name: "missing version", control: "Package: foo\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := FromControl(parse(t, tt.control))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, info)
		})
	}
}

func TestFromResult(t *testing.T) {
	dir := t.TempDir()
	control := debtest.Tar(t,
		debtest.File{Name: "./control", Body: "Package: foo\nVersion: 1.0\n"},
		debtest.File{Name: "./conffiles", Body: "/etc/foo.conf\n"},
	)
	data := debtest.Tar(t,
		debtest.File{Name: "./", Type: tar.TypeDir},
		debtest.File{Name: "./etc/foo.conf", Body: "x=1\n"},
		debtest.File{Name: "./usr/bin/foo", Body: "bin", Mode: 0755},
		debtest.File{Name: "./usr/bin/foo-alias", Type: tar.TypeSymlink, Linkname: "foo"},
	)
	path := debtest.Write(t, dir, "foo.deb", debtest.Ar(t,
		debtest.Member{Name: "debian-binary", Body: []byte("2.0\n")},
		debtest.Member{Name: "control.tar.gz", Body: debtest.Gzip(t, control)},
		debtest.Member{Name: "data.tar.xz", Body: debtest.Xz(t, data)},
	))

	res, err := deb.Unpack(path, deb.Options{WorkDir: filepath.Join(dir, "work")})
	require.NoError(t, err)

	info, err := FromResult(res)
	require.NoError(t, err)
	assert.Equal(t, []FileEntry{
		{Path: "etc/foo.conf", CanRemove: false},
		{Path: "usr/bin/foo", CanRemove: true},
		{Path: "usr/bin/foo-alias", CanRemove: true},
	}, info.Files)
}

func TestListFilesMissingDir(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReadConffiles(t *testing.T) {
	dir := t.TempDir()
	set, err := readConffiles(filepath.Join(dir, "conffiles"))
	require.NoError(t, err)
	assert.Empty(t, set)

	path := filepath.Join(dir, "conffiles")
	require.NoError(t, os.WriteFile(path, []byte("/etc/a\n\n  /etc/b  \n"), 0644))
	set, err = readConffiles(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"/etc/a": true, "/etc/b": true}, set)
}

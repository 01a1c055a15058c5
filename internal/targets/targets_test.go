package targets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTargets(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
		want     []Descriptor
		wantErr  error
		anyErr   bool
	}{
		{
			name:     "json array keeps order",
			file:     "targets.json",
			contents: `[{"method":"GET","route":"/health"},{"method":"TRACE","route":"/x"},{"method":"POST","route":"/items","note":"ignored"}]`,
			want: []Descriptor{
				{Method: "GET", Route: "/health"},
				{Method: "TRACE", Route: "/x"},
				{Method: "POST", Route: "/items"},
			},
		},
		{
			name:     "empty array",
			file:     "targets.json",
			contents: "  []\n",
			want:     []Descriptor{},
		},
		{
			name:     "missing keys stay empty",
			file:     "targets.json",
			contents: `[{"route":"/only-route"}]`,
			want:     []Descriptor{{Route: "/only-route"}},
		},
		{
			name:     "no extension is treated as json",
			file:     "targets",
			contents: `[{"method":"DELETE","route":"/a"}]`,
			want:     []Descriptor{{Method: "DELETE", Route: "/a"}},
		},
		{
			name:     "malformed json",
			file:     "targets.json",
			contents: `[{"method":"GET",`,
			anyErr:   true,
		},
		{
			name:     "json object is not a list",
			file:     "targets.json",
			contents: `{"method":"GET","route":"/"}`,
			wantErr:  ErrNotList,
		},
		{
			name:     "json null is not a list",
			file:     "targets.json",
			contents: `null`,
			wantErr:  ErrNotList,
		},
		{
			name:     "yaml sequence",
			file:     "targets.yaml",
			contents: "- method: PATCH\n  route: /users/1\n- method: PUT\n  route: /users/2\n",
			want: []Descriptor{
				{Method: "PATCH", Route: "/users/1"},
				{Method: "PUT", Route: "/users/2"},
			},
		},
		{
			name:     "yaml mapping is not a list",
			file:     "targets.yml",
			contents: "method: GET\nroute: /\n",
			wantErr:  ErrNotList,
		},
		{
			name:     "empty yaml is not a list",
			file:     "targets.yml",
			contents: "",
			wantErr:  ErrNotList,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTargets(t, tc.file, tc.contents)
			got, err := Load(path)
			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.anyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surefi/surefi-gateway/internal/apperr"
)

const testABI = `[
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"verified","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contract_abi.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadInterface_RepositoryFile(t *testing.T) {
	iface, err := LoadInterface("../../contract_abi.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"owner", "setVerified", "verified"}, iface.Methods())
	assert.Equal(t, "../../contract_abi.json", iface.Path())
}

func TestLoadInterface_NotFound(t *testing.T) {
	_, err := LoadInterface(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterfaceNotFound)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestParseInterface(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		errText string
	}{
		{
			name: "valid",
			doc:  testABI,
		},
		{
			name:    "not json",
			doc:     `[{"name": "owner",`,
			wantErr: ErrMalformedInterface,
		},
		{
			name:    "object instead of array",
			doc:     `{"abi": []}`,
			wantErr: ErrMalformedInterface,
		},
		{
			name:    "unknown argument type",
			doc:     `[{"inputs":[{"name":"x","type":"foo"}],"name":"owner","outputs":[],"stateMutability":"view","type":"function"}]`,
			wantErr: ErrMalformedInterface,
		},
		{
			name:    "empty array",
			doc:     `[]`,
			wantErr: ErrInterfaceMismatch,
			errText: "missing method owner",
		},
		{
			name: "verified is not read-only",
			doc: `[
				{"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
				{"inputs":[{"name":"","type":"address"}],"name":"verified","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
			]`,
			wantErr: ErrInterfaceMismatch,
			errText: "method verified is not read-only",
		},
		{
			name: "owner returns wrong type",
			doc: `[
				{"inputs":[],"name":"owner","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
				{"inputs":[{"name":"","type":"address"}],"name":"verified","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
			]`,
			wantErr: ErrInterfaceMismatch,
			errText: "method owner returns (uint256), want (address)",
		},
		{
			name: "verified takes wrong arguments",
			doc: `[
				{"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"stateMutability":"pure","type":"function"},
				{"inputs":[{"name":"","type":"address"},{"name":"","type":"uint256"}],"name":"verified","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
			]`,
			wantErr: ErrInterfaceMismatch,
			errText: "method verified takes (address,uint256), want (address)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iface, err := ParseInterface([]byte(tt.doc))
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, []string{"owner", "verified"}, iface.Methods())
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestLoadInterface_MalformedFileNamesPath(t *testing.T) {
	path := writeFile(t, "not json at all")

	_, err := LoadInterface(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInterface)
	assert.Contains(t, err.Error(), path)
}

func TestResolvePath(t *testing.T) {
	t.Run("absolute path unchanged", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "abi.json")
		assert.Equal(t, abs, ResolvePath(abs))
	})

	t.Run("relative path present in working directory", func(t *testing.T) {
		assert.Equal(t, "interface.go", ResolvePath("interface.go"))
	})

	t.Run("missing relative path falls through", func(t *testing.T) {
		assert.Equal(t, "does-not-exist.json", ResolvePath("does-not-exist.json"))
	})
}

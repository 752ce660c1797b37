package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempPathFor(t *testing.T, format Format) string {
	t.Helper()
	dir := t.TempDir()
	switch format {
	case FormatTar:
		return filepath.Join(dir, "bag.tar")
	case FormatTarGz:
		return filepath.Join(dir, "bag.tar.gz")
	case FormatZip:
		return filepath.Join(dir, "bag.zip")
	case FormatDirectory:
		return filepath.Join(dir, "bag")
	default:
		return ""
	}
}

func TestWriteThenReadRoundTripAcrossFormats(t *testing.T) {
	ctx := context.Background()
	for _, format := range []Format{FormatMemory, FormatDirectory, FormatTar, FormatTarGz, FormatZip} {
		format := format
		t.Run(string(format), func(t *testing.T) {
			path := tempPathFor(t, format)

			w, err := Open(ctx, Spec{Mode: ModeWrite, Format: format, Path: path})
			require.NoError(t, err)
			require.NoError(t, w.Write(ctx, "/a/one.bin", []byte("hello")))
			require.NoError(t, w.Write(ctx, "nested/two.bin", []byte("world")))
			require.NoError(t, w.Close(ctx))
			require.NoError(t, w.Close(ctx), "Close must be idempotent")

			r, err := Open(ctx, Spec{Mode: ModeRead, Format: format, Path: path})
			require.NoError(t, err)
			defer r.Close(ctx)

			names, err := r.Namelist(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"/a/one.bin", "/nested/two.bin"}, names)

			got, err := r.ReadAsString(ctx, "/a/one.bin")
			require.NoError(t, err)
			assert.Equal(t, "hello", string(got))

			got, err = r.ReadAsString(ctx, "nested/two.bin")
			require.NoError(t, err)
			assert.Equal(t, "world", string(got))
		})
	}
}

func TestReadAsStringNotFoundAcrossFormats(t *testing.T) {
	ctx := context.Background()
	for _, format := range []Format{FormatMemory, FormatDirectory, FormatTar, FormatZip} {
		format := format
		t.Run(string(format), func(t *testing.T) {
			path := tempPathFor(t, format)

			w, err := Open(ctx, Spec{Mode: ModeWrite, Format: format, Path: path})
			require.NoError(t, err)
			require.NoError(t, w.Write(ctx, "only.bin", []byte("x")))
			require.NoError(t, w.Close(ctx))

			r, err := Open(ctx, Spec{Mode: ModeRead, Format: format, Path: path})
			require.NoError(t, err)
			defer r.Close(ctx)

			_, err = r.ReadAsString(ctx, "missing.bin")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestOpenUnknownFormatFails(t *testing.T) {
	_, err := Open(context.Background(), Spec{Mode: ModeWrite, Format: Format("exotic")})
	assert.Error(t, err)
}

func TestOpenFailsWithCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, Spec{Mode: ModeWrite, Format: FormatMemory})
	assert.Error(t, err)
}

func TestInferFormatFromPathExtension(t *testing.T) {
	assert.Equal(t, FormatTar, inferFormat("bag.tar"))
	assert.Equal(t, FormatTarGz, inferFormat("bag.tar.gz"))
	assert.Equal(t, FormatTarGz, inferFormat("bag.tgz"))
	assert.Equal(t, FormatZip, inferFormat("bag.zip"))
	assert.Equal(t, FormatDirectory, inferFormat("bag"))
}

func TestCanonicalizeAndDisplayName(t *testing.T) {
	assert.Equal(t, "a/b", CanonicalizeName("/a/b"))
	assert.Equal(t, "a/b", CanonicalizeName("a/b"))
	assert.Equal(t, "/a/b", DisplayName("a/b"))
	assert.Equal(t, "/a/b", DisplayName("/a/b"))
}

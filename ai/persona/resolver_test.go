package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePersona(t *testing.T, dir string, parts ...string) {
	t.Helper()
	path := filepath.Join(append([]string{dir}, parts[:len(parts)-1]...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(parts[len(parts)-1]), 0o644))
}

func TestResolver_Precedence(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "default.txt", "전역 기본 페르소나")
	writePersona(t, dir, "louvre", "default.txt", "루브르 기본 페르소나")
	writePersona(t, dir, "louvre", "mona_lisa.txt", "모나리자 전담 페르소나")

	r, err := Load(dir)
	require.NoError(t, err)

	t.Run("class persona wins", func(t *testing.T) {
		assert.Equal(t, "모나리자 전담 페르소나", r.Resolve("louvre", "mona_lisa"))
	})

	t.Run("location default for unknown class", func(t *testing.T) {
		assert.Equal(t, "루브르 기본 페르소나", r.Resolve("louvre", "venus_de_milo"))
	})

	t.Run("global default for unknown location", func(t *testing.T) {
		assert.Equal(t, "전역 기본 페르소나", r.Resolve("orsay", "anything"))
	})
}

func TestResolver_MissingLayers(t *testing.T) {
	t.Run("missing directory uses built-in default", func(t *testing.T) {
		r, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
		require.NoError(t, err)
		assert.Equal(t, DefaultGlobalPersona, r.Resolve("louvre", "mona_lisa"))
	})

	t.Run("location without default falls through to global", func(t *testing.T) {
		dir := t.TempDir()
		writePersona(t, dir, "default.txt", "전역")
		writePersona(t, dir, "louvre", "mona_lisa.txt", "클래스 전용")

		r, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "클래스 전용", r.Resolve("louvre", "mona_lisa"))
		assert.Equal(t, "전역", r.Resolve("louvre", "other"))
	})

	t.Run("empty persona file is ignored", func(t *testing.T) {
		dir := t.TempDir()
		writePersona(t, dir, "louvre", "mona_lisa.txt", "   \n")

		r, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, DefaultGlobalPersona, r.Resolve("louvre", "mona_lisa"))
	})
}

func TestResolver_Reload(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "louvre", "mona_lisa.txt", "처음 페르소나")

	r, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "처음 페르소나", r.Resolve("louvre", "mona_lisa"))

	writePersona(t, dir, "louvre", "mona_lisa.txt", "바뀐 페르소나")
	require.NoError(t, r.reload(dir))
	assert.Equal(t, "바뀐 페르소나", r.Resolve("louvre", "mona_lisa"))

	t.Run("removed file falls back after reload", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "louvre", "mona_lisa.txt")))
		require.NoError(t, r.reload(dir))
		assert.Equal(t, DefaultGlobalPersona, r.Resolve("louvre", "mona_lisa"))
	})
}

func TestResolver_PersonaTextTrimmed(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "louvre", "mona_lisa.txt", "\n  페르소나 본문  \n\n")

	r, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "페르소나 본문", r.Resolve("louvre", "mona_lisa"))
}

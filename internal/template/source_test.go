package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func TestEmbeddedSourceServesAllTemplates(t *testing.T) {
	src := NewEmbeddedSource()
	for _, name := range []string{AMPBaseTemplate, FallbackBaseTemplate, ChatModuleTemplate} {
		text, err := src.Load(name)
		require.NoError(t, err, name)
		require.NotEmpty(t, text, name)
	}

	_, err := src.Load("missing.html")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

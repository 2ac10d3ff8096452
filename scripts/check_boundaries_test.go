package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryRespectsBoundaries(t *testing.T) {
	assert.Empty(t, collectViolations(filepath.Join("..", "contexts")))
}

func TestDomainMayNotImportInfrastructure(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "demo", "demo-service", "domain")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	source := `package domain

import (
	_ "strings"
	_ "golang.org/x/text/cases"
	_ "gorm.io/gorm"
	_ "traject/internal/platform/db"
	_ "traject/contexts/other/other-service/domain"
)
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thing.go"), []byte(source), 0o644))

	violations := collectViolations(root)
	imports := make([]string, 0, len(violations))
	for _, v := range violations {
		imports = append(imports, v.Import)
		assert.Equal(t, "contexts/demo/demo-service/domain/thing.go", v.File)
	}
	assert.Contains(t, imports, "gorm.io/gorm")
	assert.Contains(t, imports, "traject/internal/platform/db")
	assert.Contains(t, imports, "traject/contexts/other/other-service/domain")
	assert.NotContains(t, imports, "golang.org/x/text/cases")
	assert.NotContains(t, imports, "strings")
}

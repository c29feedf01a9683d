package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/vault-import/modules/vault/services"
	"github.com/iota-uz/vault-import/pkg/configuration"
)

const sampleDoc = `{
  "sourceSystems": [{"id": "SAP", "displayName": "SAP"}],
  "departments": [
    {"externalId": "ROOT", "displayName": "Board", "managerExternalId": "CEO"},
    {"externalId": "OPS", "displayName": "Operations", "parentExternalId": "ROOT"}
  ],
  "persons": [
    {"externalId": "P1", "firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
     "primaryContract": {"externalId": "C1", "source": "SAP", "departmentExternalId": "OPS",
       "managerExternalId": "M1", "workload": "0.8", "location": {"name": "HQ"}, "title": {"name": "Engineer"}}}
  ]
}`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(dir, "vault.db"))
	t.Setenv("BACKUP_DRIVER", "fs")
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("PREFERENCES_DRIVER", "file")
	t.Setenv("PREFERENCES_PATH", filepath.Join(dir, "prefs.yaml"))
	t.Setenv("LOG_LEVEL", "silent")
	t.Setenv("LOG_PATH", "")

	prev := loadConfig
	loadConfig = func() (*configuration.Configuration, error) { return configuration.Load() }
	t.Cleanup(func() { loadConfig = prev })

	path := filepath.Join(dir, "vault.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResult(t *testing.T, out string) services.ImportResult {
	t.Helper()
	var res services.ImportResult
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &res))
	return res
}

func TestImportCmd_Lifecycle(t *testing.T) {
	doc := setupEnv(t)

	out, err := run(t, "has-data")
	require.NoError(t, err)
	require.JSONEq(t, `{"has_data": false}`, out)

	out, err = run(t, "import", "--input", doc)
	require.NoError(t, err)
	res := decodeResult(t, out)
	require.True(t, res.Success)
	require.Equal(t, 1, res.Created["persons"])
	require.Equal(t, 2, res.Created["departments"])

	out, err = run(t, "has-data")
	require.NoError(t, err)
	require.JSONEq(t, `{"has_data": true}`, out)

	out, err = run(t, "import", "--input", doc)
	require.Error(t, err)
	require.Equal(t, exitSafetyNet, exitCode(err))
	res = decodeResult(t, out)
	require.True(t, res.Cancelled)
	require.Equal(t, services.StateAborted, res.FinalState)

	out, err = run(t, "import", "--input", doc, "--on-existing", "backup", "--detect-manager")
	require.NoError(t, err)
	res = decodeResult(t, out)
	require.True(t, res.Success)
	require.FileExists(t, res.BackupPath)
	require.Equal(t, "department", string(res.ManagerRule))

	out, err = run(t, "detect-manager")
	require.NoError(t, err)
	var det map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &det))
	require.Equal(t, "department", det["rule"])
	require.Equal(t, true, det["persisted"])
}

func TestImportCompanyCmd(t *testing.T) {
	doc := setupEnv(t)

	out, err := run(t, "import-company", "--input", doc)
	require.NoError(t, err)
	res := decodeResult(t, out)
	require.Equal(t, services.ModeCompanyOnly, res.Mode)
	require.Zero(t, res.Created["persons"])
	require.Equal(t, 1, res.Created["location"])
}

func TestImportCmd_UsageErrors(t *testing.T) {
	doc := setupEnv(t)

	_, err := run(t, "import", "--input", doc, "--on-existing", "merge")
	require.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, "import", "--input", doc, "--manager-rule", "random")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestImportCmd_StructuralError(t *testing.T) {
	setupEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"persons": [`), 0o600))

	out, err := run(t, "import", "--input", bad)
	require.Equal(t, exitValidation, exitCode(err))
	require.False(t, decodeResult(t, out).Success)
}

func TestValidateCmd_WritesWorkbook(t *testing.T) {
	doc := setupEnv(t)
	_, err := run(t, "import", "--input", doc)
	require.NoError(t, err)

	xlsx := filepath.Join(t.TempDir(), "orphans.xlsx")
	out, err := run(t, "validate", "--xlsx", xlsx)
	require.NoError(t, err)
	require.Contains(t, out, `"total":0`)

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Equal(t, []string{"Kind", "Orphans"}, rows[0])
	require.Equal(t, []string{"location", "0"}, rows[1])
}

func TestSchemaCmd(t *testing.T) {
	out, err := run(t, "schema", "--driver", "postgres")
	require.NoError(t, err)
	require.Contains(t, out, "CREATE TABLE IF NOT EXISTS contracts")
	require.Contains(t, out, "JSONB")

	_, err = run(t, "schema", "--driver", "oracle")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestCodeFor(t *testing.T) {
	require.Equal(t, exitOK, codeFor(""))
	require.Equal(t, 1, codeFor("SOMETHING_ELSE"))
}

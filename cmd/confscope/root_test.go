package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const fixtures = "../../testdata/services"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(viper.New())
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFragment(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestTypesCommandJSON(t *testing.T) {
	out, err := execute(t, "types", "--dir", fixtures, "-o", "json")
	require.NoError(t, err)

	var summaries []typeSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 2)
	require.Equal(t, "database", summaries[0].Type)
	require.True(t, summaries[0].HasDefault)
	require.Empty(t, summaries[0].IDs)
	require.Equal(t, "service", summaries[1].Type)
	require.Equal(t, []string{"billing", "worker-a", "worker-b"}, summaries[1].IDs)
	require.Equal(t, []string{"prod", "qa", "staging"}, summaries[1].Modifiers)
}

func TestResolveCommandComposesLevels(t *testing.T) {
	out, err := execute(t, "resolve", "service", "--dir", fixtures,
		"--id-field", "serviceId", "--id", "billing", "--modifier", "prod", "-o", "json")
	require.NoError(t, err)

	var resolved map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resolved))
	require.Equal(t, float64(9443), resolved["service"]["port"])
	require.Equal(t, "warn", resolved["service"]["logLevel"])
}

func TestResolveCommandTrace(t *testing.T) {
	out, err := execute(t, "resolve", "service", "--dir", fixtures,
		"--id-field", "serviceId", "--id", "billing", "--modifier", "prod", "--path", "service.logLevel")
	require.NoError(t, err)
	require.Contains(t, out, "service.logLevel = warn")
	require.Contains(t, out, "unset")
	require.Contains(t, out, "info")
}

func TestResolveCommandMiss(t *testing.T) {
	_, err := execute(t, "resolve", "cache", "--dir", fixtures)
	require.Error(t, err)
	require.Contains(t, err.Error(), `no configuration for type "cache"`)
}

func TestDescribeCommandYAML(t *testing.T) {
	out, err := execute(t, "describe", "database", "--dir", fixtures, "-o", "yaml")
	require.NoError(t, err)
	require.Contains(t, out, "path: database.pool")
	require.Contains(t, out, "type: int64")
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("CONFSCOPE_OUTPUT", "yaml")
	t.Setenv("CONFSCOPE_ID_FIELD", "serviceId")

	out, err := execute(t, "resolve", "service", "--dir", fixtures, "--id", "billing")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "service:\n"), out)
	require.Contains(t, out, "port: 9443")
}

func TestSettingsFile(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "default.yaml", "app:\n  name: api\n  replicas: 1\n")
	writeFragment(t, dir, "prod.yaml", "app:\n  env: prod\n  replicas: 3\n")
	settingsFile := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settingsFile,
		[]byte("dir: "+dir+"\nmodifier_field: env\nextensions: [yaml]\n"), 0o644))

	out, err := execute(t, "resolve", "app", "--config", settingsFile, "--modifier", "prod")
	require.NoError(t, err)
	require.Contains(t, out, "app.replicas = 3")
	require.Contains(t, out, "app.name = api")
}

func TestExpressionClassifier(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "api.yaml", "service:\n  owner: team\n  name: api\n")
	writeFragment(t, dir, "default.yaml", "service:\n  port: 80\n")

	for _, engine := range []string{"expr", "cel"} {
		t.Run(engine, func(t *testing.T) {
			out, err := execute(t, "resolve", "service", "--dir", dir, "--engine", engine,
				"--id-expr", "'name' in service ? service.owner + '-' + service.name : ''",
				"--id", "team-api")
			require.NoError(t, err)
			require.Contains(t, out, "service.name = api")
			require.Contains(t, out, "service.port = 80")
		})
	}
}

func TestUnknownEngine(t *testing.T) {
	_, err := execute(t, "types", "--dir", fixtures, "--id-expr", "x", "--engine", "lua")
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown engine "lua"`)
}

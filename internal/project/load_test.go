package project

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildcontrol/internal/configuration"
	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
)

const fullFixture = `<buildcontrol>
	<project name="website" queue="docs">
		<triggers>
			<intervalTrigger name="cadence" seconds="30" buildCondition="ForceBuild"/>
			<urlTrigger seconds="60" url="https://example.com/feed.xml" fireOnStartup="true"/>
		</triggers>
		<tasks>
			<exec command="make" args="site" baseDirectory="/srv/www"/>
			<noop/>
		</tasks>
	</project>
	<project name="api">
		<triggers>
			<intervalTrigger seconds="300"/>
		</triggers>
	</project>
</buildcontrol>`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "buildcontrol.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MaterializesTypedGraph(t *testing.T) {
	cfg, err := NewLoader().Load(writeFixture(t, fullFixture))
	require.NoError(t, err)
	require.Len(t, cfg.Projects, 2)

	website := cfg.Project("website")
	require.NotNil(t, website)
	require.Equal(t, "docs", website.Queue)
	require.Len(t, website.Triggers, 2)
	require.Len(t, website.Tasks, 2)

	interval, ok := website.Triggers[0].(IntervalTriggerSpec)
	require.True(t, ok)
	require.Equal(t, "cadence", interval.TriggerName())
	require.Equal(t, 30, interval.Seconds)
	require.Equal(t, ForceBuild, interval.Condition())

	remote, ok := website.Triggers[1].(URLTriggerSpec)
	require.True(t, ok)
	require.Equal(t, "urlTrigger", remote.TriggerName()) // defaults to the tag name
	require.Equal(t, "https://example.com/feed.xml", remote.URL)
	require.True(t, remote.FireOnStartup)
	require.Equal(t, IfModificationExists, remote.Condition())

	exec, ok := website.Tasks[0].(ExecTaskSpec)
	require.True(t, ok)
	require.Equal(t, "make", exec.Command)
	require.Equal(t, "site", exec.Args)
	require.Equal(t, "noop", website.Tasks[1].Kind())

	api := cfg.Project("api")
	require.NotNil(t, api)
	require.Len(t, api.Triggers, 1)
	require.Empty(t, api.Tasks)
}

// Re-loading an unchanged file yields a structurally equivalent graph.
func TestLoad_IsIdempotent(t *testing.T) {
	path := writeFixture(t, fullFixture)
	loader := NewLoader()

	first, err := loader.Load(path)
	require.NoError(t, err)
	second, err := loader.Load(path)
	require.NoError(t, err)

	require.NotSame(t, first, second)
	require.True(t, reflect.DeepEqual(first, second), "reloaded graph differs structurally")
}

func TestLoad_ProjectsKeepDocumentOrder(t *testing.T) {
	cfg, err := NewLoader().Load(writeFixture(t, fullFixture))
	require.NoError(t, err)
	require.Equal(t, "website", cfg.Projects[0].Name)
	require.Equal(t, "api", cfg.Projects[1].Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.xml"))
	require.Error(t, err)
	require.Equal(t, bcerrors.KindFileMissing, bcerrors.KindOf(err))
}

// Decoders defend against malformed attributes even without the validator in
// front of them.
func TestDecoders_RejectMalformedAttributes(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"interval seconds missing", `<buildcontrol><project name="p"><triggers><intervalTrigger/></triggers></project></buildcontrol>`},
		{"interval seconds negative", `<buildcontrol><project name="p"><triggers><intervalTrigger seconds="-1"/></triggers></project></buildcontrol>`},
		{"url missing", `<buildcontrol><project name="p"><triggers><urlTrigger seconds="30"/></triggers></project></buildcontrol>`},
		{"fireOnStartup malformed", `<buildcontrol><project name="p"><triggers><urlTrigger seconds="30" url="https://x.test/" fireOnStartup="maybe"/></triggers></project></buildcontrol>`},
		{"exec command missing", `<buildcontrol><project name="p"><tasks><exec/></tasks></project></buildcontrol>`},
		{"project name missing", `<buildcontrol><project/></buildcontrol>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := configuration.NewResolver(nil).Expand(strings.NewReader(tt.markup), "fixture.xml")
			require.NoError(t, err)

			_, err = configuration.NewMaterializer(NewRegistry()).Materialize(doc)
			require.Error(t, err)
			require.Equal(t, bcerrors.KindInvalidAttribute, bcerrors.KindOf(err))
		})
	}
}

package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExpand_NoIncludes(t *testing.T) {
	r := NewResolver(nil)
	doc, err := r.Expand(strings.NewReader(`<buildcontrol><project name="a"/></buildcontrol>`), "main.xml")
	require.NoError(t, err)
	require.Equal(t, "buildcontrol", doc.Root.Name)
	require.Len(t, doc.Root.Children, 1)
	require.Equal(t, "project", doc.Root.Children[0].Name)
}

func TestExpand_SplicesIncludedFileInPlace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "project.xml", `<project name="website"><triggers/></project>`)
	main := `<buildcontrol><include file="project.xml"/></buildcontrol>`

	r := NewResolver(nil)
	var loaded []string
	r.OnSubfileLoaded(func(path string) { loaded = append(loaded, path) })

	doc, err := r.Expand(strings.NewReader(main), filepath.Join(dir, "main.xml"))
	require.NoError(t, err)

	require.Len(t, doc.Root.Children, 1)
	spliced := doc.Root.Children[0]
	require.Equal(t, "project", spliced.Name)
	require.Equal(t, "website", spliced.Attrs["name"])

	require.Len(t, loaded, 1)
	require.Equal(t, filepath.Join(dir, "project.xml"), loaded[0])
}

func TestExpand_NestedIncludesResolveRelativeToIncludingFile(t *testing.T) {
	dir := t.TempDir()
	// sub/inner.xml is referenced relative to sub/outer.xml, not to main.xml.
	writeFile(t, dir, "sub/inner.xml", `<tasks><noop/></tasks>`)
	writeFile(t, dir, "sub/outer.xml", `<project name="p"><include file="inner.xml"/></project>`)
	main := `<buildcontrol><include file="sub/outer.xml"/></buildcontrol>`

	r := NewResolver(nil)
	var loaded []string
	r.OnSubfileLoaded(func(path string) { loaded = append(loaded, path) })

	doc, err := r.Expand(strings.NewReader(main), filepath.Join(dir, "main.xml"))
	require.NoError(t, err)

	project := doc.Root.Children[0]
	require.Equal(t, "project", project.Name)
	require.NotNil(t, project.FirstChild("tasks"))
	require.Len(t, loaded, 2)
}

func TestExpand_UnresolvableIncludeFails(t *testing.T) {
	r := NewResolver(nil)
	main := `<buildcontrol><include file="missing.xml"/></buildcontrol>`
	_, err := r.Expand(strings.NewReader(main), filepath.Join(t.TempDir(), "main.xml"))
	require.Error(t, err)
	require.Equal(t, bcerrors.KindUnresolvedInclusion, bcerrors.KindOf(err))
}

func TestExpand_IncludeCycleFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.xml", `<project name="a"><include file="b.xml"/></project>`)
	writeFile(t, dir, "b.xml", `<tasks><include file="a.xml"/></tasks>`)
	main := `<buildcontrol><include file="a.xml"/></buildcontrol>`

	r := NewResolver(nil)
	_, err := r.Expand(strings.NewReader(main), filepath.Join(dir, "main.xml"))
	require.Error(t, err)
	require.Equal(t, bcerrors.KindInclusionCycle, bcerrors.KindOf(err))
}

func TestExpand_SelfIncludeFailsFast(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.xml", `<buildcontrol><include file="main.xml"/></buildcontrol>`)

	f, err := os.Open(main)
	require.NoError(t, err)
	defer f.Close()

	r := NewResolver(nil)
	_, err = r.Expand(f, main)
	require.Error(t, err)
	require.Equal(t, bcerrors.KindInclusionCycle, bcerrors.KindOf(err))
}

func TestExpand_SameFileIncludedTwiceIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.xml", `<tasks><noop/></tasks>`)
	main := `<buildcontrol>` +
		`<project name="a"><include file="shared.xml"/></project>` +
		`<project name="b"><include file="shared.xml"/></project>` +
		`</buildcontrol>`

	r := NewResolver(nil)
	doc, err := r.Expand(strings.NewReader(main), filepath.Join(dir, "main.xml"))
	require.NoError(t, err)
	require.Len(t, doc.Root.ChildrenNamed("project"), 2)
}

func TestExpand_MalformedMarkupFails(t *testing.T) {
	r := NewResolver(nil)
	_, err := r.Expand(strings.NewReader(`<buildcontrol><project`), "main.xml")
	require.Error(t, err)
	require.Equal(t, bcerrors.KindMalformedDocument, bcerrors.KindOf(err))
}

func TestExpand_MalformedSubfileFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.xml", `<project name="x">`)
	main := `<buildcontrol><include file="bad.xml"/></buildcontrol>`

	r := NewResolver(nil)
	_, err := r.Expand(strings.NewReader(main), filepath.Join(dir, "main.xml"))
	require.Error(t, err)
	require.Equal(t, bcerrors.KindMalformedDocument, bcerrors.KindOf(err))
}

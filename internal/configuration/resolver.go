package configuration

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
	"git.home.luguber.info/inful/buildcontrol/internal/logfields"
)

// IncludeTag is the element name that references another configuration file.
const IncludeTag = "include"

// includeFileAttr names the referenced file, relative to the including file's
// directory unless absolute.
const includeFileAttr = "file"

// SubfileObserver is notified once per successfully included file. The daemon
// uses it to extend its hot-reload watch set.
type SubfileObserver func(path string)

// Resolver expands inclusion references in a raw document stream into a single
// merged document tree.
type Resolver struct {
	observers []SubfileObserver
	log       *slog.Logger
}

// NewResolver creates a subfile resolver. A nil logger falls back to slog.Default.
func NewResolver(log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{log: log}
}

// OnSubfileLoaded registers an observer called for every included file.
func (r *Resolver) OnSubfileLoaded(obs SubfileObserver) {
	if obs != nil {
		r.observers = append(r.observers, obs)
	}
}

// Expand parses the stream and recursively splices every inclusion reference
// in place. originPath anchors relative references and participates in cycle
// detection.
func (r *Resolver) Expand(source io.Reader, originPath string) (*Document, error) {
	abs, err := filepath.Abs(originPath)
	if err != nil {
		abs = originPath
	}

	doc, err := parseDocument(source, originPath)
	if err != nil {
		return nil, err
	}

	// Paths currently open on the inclusion stack. An included file that
	// transitively includes itself is a configuration error, never recursion.
	open := map[string]bool{abs: true}

	if doc.Root.Name == IncludeTag {
		replacement, err := r.resolveInclude(doc.Root, filepath.Dir(abs), open)
		if err != nil {
			return nil, err
		}
		doc.Root = replacement
	}
	if err := r.expandChildren(doc.Root, filepath.Dir(abs), open); err != nil {
		return nil, err
	}
	return doc, nil
}

// expandChildren walks el's children, replacing include elements in place.
func (r *Resolver) expandChildren(el *Element, baseDir string, open map[string]bool) error {
	for i, child := range el.Children {
		if child.Name == IncludeTag {
			replacement, err := r.resolveInclude(child, baseDir, open)
			if err != nil {
				return err
			}
			el.Children[i] = replacement
			continue
		}
		if err := r.expandChildren(child, baseDir, open); err != nil {
			return err
		}
	}
	return nil
}

// resolveInclude loads the referenced file, expands it recursively, and
// returns its root element as the splice replacement.
func (r *Resolver) resolveInclude(inc *Element, baseDir string, open map[string]bool) (*Element, error) {
	ref, ok := inc.Attr(includeFileAttr)
	if !ok || ref == "" {
		return nil, bcerrors.UnresolvedInclusion("", baseDir).
			WithContext("reason", fmt.Sprintf("%s element requires a %q attribute", IncludeTag, includeFileAttr))
	}

	target := ref
	if !filepath.IsAbs(target) {
		target = filepath.Join(baseDir, target)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}

	if open[abs] {
		return nil, bcerrors.InclusionCycle(abs)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, bcerrors.UnresolvedInclusion(ref, baseDir).WithContext("path", abs)
	}
	defer f.Close()

	sub, err := parseDocument(f, abs)
	if err != nil {
		return nil, err
	}

	open[abs] = true
	defer delete(open, abs)

	if sub.Root.Name == IncludeTag {
		replacement, err := r.resolveInclude(sub.Root, filepath.Dir(abs), open)
		if err != nil {
			return nil, err
		}
		sub.Root = replacement
	} else if err := r.expandChildren(sub.Root, filepath.Dir(abs), open); err != nil {
		return nil, err
	}

	r.log.Debug("configuration subfile included", logfields.File(abs))
	for _, obs := range r.observers {
		obs(abs)
	}
	return sub.Root, nil
}

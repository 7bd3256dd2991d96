package engine

import (
	"github.com/nagsync/nagsync/internal/applier"
	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/planner"
	"github.com/nagsync/nagsync/internal/platform"
	"github.com/nagsync/nagsync/internal/resources"
)

// managed is a resource plus the paths it reads and writes.
type managed struct {
	resource applier.Resource
	paths    []string
}

// buildResources turns a validated manifest into resources in execution
// order: keys, fragments, edits, prune.
func (e *Engine) buildResources(m *config.Manifest, baseDir string) ([]managed, error) {
	p := m.PlatformImpl()
	var out []managed

	for _, k := range m.Keys {
		keygen := &resources.Keygen{
			FS:       e.fs,
			Runner:   e.runner,
			Platform: p,
			KeyPath:  resolvePath(p, k.Path, baseDir),
			Bits:     k.Bits,
			Comment:  k.Comment,
		}
		out = append(out, managed{resource: keygen, paths: []string{keyPathFor(keygen, p)}})
	}

	for _, f := range m.Fragments {
		frag := &resources.Fragment{
			FS:     e.fs,
			Hasher: e.hasher,
			Source: resolvePath(p, f.Source, baseDir),
			Dest:   resolvePath(p, f.Dest, baseDir),
		}
		out = append(out, managed{resource: frag, paths: []string{frag.Source, frag.Dest}})
	}

	for _, ed := range m.Edits {
		key, err := planner.ParseKey(ed.Key)
		if err != nil {
			return nil, err
		}
		edit := &resources.ListEdit{
			FS:       e.fs,
			Platform: p,
			File:     resolvePath(p, ed.File, baseDir),
			Key:      key,
			Values:   append([]string(nil), ed.Values...),
		}
		out = append(out, managed{resource: edit, paths: []string{edit.File}})
	}

	for _, pr := range m.Prune {
		prune := &resources.Prune{
			FS:      e.fs,
			Dir:     resolvePath(p, pr.Dir, baseDir),
			Pattern: pr.Pattern,
			Keep:    pr.Keep,
		}
		out = append(out, managed{resource: prune, paths: []string{prune.Dir}})
	}

	return out, nil
}

func keyPathFor(k *resources.Keygen, p platform.Platform) string {
	if k.KeyPath != "" {
		return k.KeyPath
	}
	return p.KeyPath()
}

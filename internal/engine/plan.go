package engine

import (
	"context"
	"fmt"

	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/planner"
	"github.com/nagsync/nagsync/internal/platform"
)

// Plan returns the guarded edits for the manifest's list settings, or for a
// single ad-hoc setting when req.Key is set. Planning never reads the files.
func (e *Engine) Plan(ctx context.Context, req *PlanRequest) ([]PlannedEdit, error) {
	if req.Key != "" {
		p := platform.Current()
		file := req.File
		if req.Manifest != nil {
			p = req.Manifest.PlatformImpl()
			if file == "" {
				file = req.Manifest.NagiosCfg
			}
		}
		if file == "" {
			file = config.DefaultNagiosCfg
		}
		file = resolvePath(p, file, req.BaseDir)

		edit, err := planner.PlanNamed(req.Values, req.Key, p.TreePath(file))
		if err != nil {
			return nil, err
		}
		return []PlannedEdit{{File: file, Key: req.Key, Edit: edit}}, nil
	}

	if req.Manifest == nil {
		return nil, ErrNoManifest
	}

	p := req.Manifest.PlatformImpl()
	planned := make([]PlannedEdit, 0, len(req.Manifest.Edits))
	for i, ed := range req.Manifest.Edits {
		file := resolvePath(p, ed.File, req.BaseDir)
		edit, err := planner.PlanNamed(ed.Values, ed.Key, p.TreePath(file))
		if err != nil {
			return nil, fmt.Errorf("edits[%d]: %w", i, err)
		}
		planned = append(planned, PlannedEdit{File: file, Key: ed.Key, Edit: edit})
	}
	return planned, nil
}

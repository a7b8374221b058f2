package hclgrid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/fsutil"
	"github.com/vk/taskgridgo/internal/schema"
)

// Loader reads .hcl grid files and translates them into config models.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL grid loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load implements config.Loader. Each file becomes one model; a directory
// contributes every .hcl file it transitively contains, in sorted order so
// grid enumeration is deterministic.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("grid path %q: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("walking grid directory %q: %w", path, err)
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		logger.Warn("No grid files found.", "paths", paths)
		return nil, nil
	}
	logger.Debug("Loading grid files.", "files", files)

	models := make([]*config.Model, 0, len(files))
	for _, file := range files {
		model, err := l.loadFile(ctx, file)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}

// loadFile parses and translates a single grid file.
func (l *Loader) loadFile(ctx context.Context, path string) (*config.Model, error) {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}
	model, err := l.decodeGrid(ctx, hclFile.Body, gridName(path))
	if err != nil {
		return nil, fmt.Errorf("grid %s: %w", path, err)
	}
	return model, nil
}

// LoadSource translates grid source held in memory. Tests and embedded grids
// use this instead of the file path entry point.
func (l *Loader) LoadSource(ctx context.Context, name, src string) (*config.Model, error) {
	hclFile, diags := l.parser.ParseHCL([]byte(src), name+".hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", name, diags)
	}
	model, err := l.decodeGrid(ctx, hclFile.Body, name)
	if err != nil {
		return nil, fmt.Errorf("grid %s: %w", name, err)
	}
	return model, nil
}

func (l *Loader) decodeGrid(ctx context.Context, body hcl.Body, name string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var grid schema.Grid
	if diags := gohcl.DecodeBody(body, nil, &grid); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode: %w", diags)
	}

	model, err := translate(&grid, name)
	if err != nil {
		return nil, err
	}
	logger.Debug("Grid translated.", "grid", name, "nodes", model.NodeCount(), "semaphores", len(model.Semaphores))
	return model, nil
}

// gridName derives the model name from the file name, without extension.
func gridName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

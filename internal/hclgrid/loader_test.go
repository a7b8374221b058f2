package hclgrid

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/config"
)

func intp(v int) *int { return &v }

func strp(v string) *string { return &v }

func boolp(v bool) *bool { return &v }

const sampleGrid = `
settings {
  workers              = 4
  topology_mode        = "physical_cores"
  topology_max_groups  = 2
  defer_worker_startup = true
  worker_local_memory  = 32768
  flush_order          = "lifo"
}

semaphore "done" {
  initial = 1
}

call "hello" {
  kernel = "echo"
}

call "second" {
  kernel     = "echo"
  depends_on = ["hello"]
}

barrier "join" {
  depends_on = ["hello", "second"]
}

dispatch "tiles" {
  kernel       = "checksum"
  grid         = [8, 4]
  local_memory = 4096
  depends_on   = ["join"]
}

fence "finish" {
  semaphore  = "done"
  value      = 2
  depends_on = ["tiles"]
}

await "gate" {
  semaphore = "done"
  value     = 1
}
`

func TestLoaderLoadSource(t *testing.T) {
	t.Run("translates a full grid", func(t *testing.T) {
		got, err := NewLoader().LoadSource(context.Background(), "sample", sampleGrid)
		require.NoError(t, err)

		want := &config.Model{
			Name: "sample",
			Settings: &config.Settings{
				Workers:            intp(4),
				TopologyMode:       strp("physical_cores"),
				TopologyMaxGroups:  intp(2),
				DeferWorkerStartup: boolp(true),
				WorkerLocalMemory:  intp(32768),
				FlushOrder:         strp("lifo"),
			},
			Semaphores: []*config.Semaphore{{Name: "done", Initial: 1}},
			Calls: []*config.Call{
				{Name: "hello", Kernel: "echo"},
				{Name: "second", Kernel: "echo", DependsOn: []string{"hello"}},
			},
			Barriers: []*config.Barrier{
				{Name: "join", DependsOn: []string{"hello", "second"}},
			},
			Dispatches: []*config.Dispatch{
				{Name: "tiles", Kernel: "checksum", Grid: [3]uint32{8, 4, 1}, LocalMemory: 4096, DependsOn: []string{"join"}},
			},
			Fences: []*config.Fence{
				{Name: "finish", Semaphore: "done", Value: 2, DependsOn: []string{"tiles"}},
			},
			Awaits: []*config.Await{
				{Name: "gate", Semaphore: "done", Value: 1},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Translated model mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("arguments stay unevaluated expressions", func(t *testing.T) {
		src := `
call "greet" {
  kernel = "echo"
  arguments {
    message = "hello"
    count   = 3
  }
}
`
		model, err := NewLoader().LoadSource(context.Background(), "args", src)
		require.NoError(t, err)
		require.Len(t, model.Calls, 1)
		assert.Contains(t, model.Calls[0].Arguments, "message")
		assert.Contains(t, model.Calls[0].Arguments, "count")
	})

	t.Run("syntax errors fail the parse", func(t *testing.T) {
		_, err := NewLoader().LoadSource(context.Background(), "broken", `call "x" {{{`)
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("unknown attributes fail the decode", func(t *testing.T) {
		src := `
call "x" {
  kernel = "echo"
  bogus  = 1
}
`
		_, err := NewLoader().LoadSource(context.Background(), "bad", src)
		assert.ErrorContains(t, err, "failed to decode")
	})

	t.Run("missing required attributes fail the decode", func(t *testing.T) {
		_, err := NewLoader().LoadSource(context.Background(), "bad", `call "x" {}`)
		assert.ErrorContains(t, err, "failed to decode")
	})
}

func TestLoaderValidation(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "duplicate node names across kinds",
			src: `
call "x" { kernel = "echo" }
barrier "x" {}
`,
			wantErr: `duplicate node name "x" (call and barrier)`,
		},
		{
			name: "duplicate semaphore names",
			src: `
semaphore "s" {}
semaphore "s" {}
`,
			wantErr: `duplicate semaphore name "s"`,
		},
		{
			name:    "empty kernel name",
			src:     `call "x" { kernel = "" }`,
			wantErr: "kernel must not be empty",
		},
		{
			name: "too many grid dimensions",
			src: `
dispatch "d" {
  kernel = "k"
  grid   = [1, 2, 3, 4]
}
`,
			wantErr: "grid must have 1 to 3 dimensions",
		},
		{
			name: "empty grid",
			src: `
dispatch "d" {
  kernel = "k"
  grid   = []
}
`,
			wantErr: "grid must have 1 to 3 dimensions",
		},
		{
			name: "negative local memory",
			src: `
dispatch "d" {
  kernel       = "k"
  grid         = [1]
  local_memory = -1
}
`,
			wantErr: "local_memory must not be negative",
		},
		{
			name: "fence without a semaphore",
			src: `
fence "f" {
  semaphore = ""
  value     = 1
}
`,
			wantErr: "semaphore must not be empty",
		},
		{
			name:    "negative worker count",
			src:     `settings { workers = -1 }`,
			wantErr: "workers must not be negative",
		},
		{
			name:    "zero topology groups",
			src:     `settings { topology_max_groups = 0 }`,
			wantErr: "topology_max_groups must be at least 1",
		},
		{
			name:    "unknown flush order",
			src:     `settings { flush_order = "random" }`,
			wantErr: "flush_order must be",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().LoadSource(context.Background(), "bad", tc.src)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoaderLoad(t *testing.T) {
	writeGrid := func(t *testing.T, path string) {
		t.Helper()
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(`call "x" { kernel = "echo" }`), 0o644))
	}

	t.Run("loads every grid file under a directory in order", func(t *testing.T) {
		dir := t.TempDir()
		writeGrid(t, filepath.Join(dir, "b.hcl"))
		writeGrid(t, filepath.Join(dir, "a.hcl"))
		writeGrid(t, filepath.Join(dir, "sub", "c.hcl"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a grid"), 0o644))

		models, err := NewLoader().Load(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, models, 3)

		names := []string{models[0].Name, models[1].Name, models[2].Name}
		assert.Equal(t, []string{"a", "b", "c"}, names)
	})

	t.Run("loads a single file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "solo.hcl")
		writeGrid(t, path)

		models, err := NewLoader().Load(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, models, 1)
		assert.Equal(t, "solo", models[0].Name)
	})

	t.Run("missing paths are errors", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
		assert.ErrorContains(t, err, "grid path")
	})

	t.Run("a directory without grids yields nothing", func(t *testing.T) {
		models, err := NewLoader().Load(context.Background(), t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, models)
	})
}

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("populates the config from flags", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, shouldExit, err := Parse([]string{
			"--workers", "4",
			"--topology-max-groups", "2",
			"--defer-worker-startup",
			"--dedicated-wait-thread",
			"--worker-local-memory", "4096",
			"--flush-order", "LIFO",
			"--stats-port", "8080",
			"--log-level", "DEBUG",
			"--log-format", "text",
			"grid.hcl",
		}, out)

		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, "grid.hcl", cfg.GridPath)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, 2, cfg.TopologyMaxGroups)
		assert.True(t, cfg.DeferWorkerStartup)
		assert.True(t, cfg.DedicatedWaitThread)
		assert.Equal(t, 4096, cfg.WorkerLocalMemory)
		assert.Equal(t, "lifo", cfg.FlushOrder)
		assert.Equal(t, 8080, cfg.StatsPort)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("defaults size the pool from the topology", func(t *testing.T) {
		cfg, shouldExit, err := Parse([]string{"grid.hcl"}, &bytes.Buffer{})

		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, 0, cfg.Workers)
		assert.Equal(t, "physical_cores", cfg.TopologyMode)
		assert.Equal(t, 8, cfg.TopologyMaxGroups)
		assert.Equal(t, "fifo", cfg.FlushOrder)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 0, cfg.StatsPort)
	})

	t.Run("grid flag takes precedence over the positional path", func(t *testing.T) {
		cfg, _, err := Parse([]string{"--grid", "a.hcl", "b.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.GridPath)

		cfg, _, err = Parse([]string{"-g", "c.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "c.hcl", cfg.GridPath)
	})

	t.Run("no grid path prints usage and exits cleanly", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, shouldExit, err := Parse(nil, out)

		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("invalid values exit with code 2", func(t *testing.T) {
		cases := []struct {
			name string
			args []string
			want string
		}{
			{"log format", []string{"--log-format", "yaml", "g.hcl"}, "invalid log-format"},
			{"log level", []string{"--log-level", "loud", "g.hcl"}, "invalid log-level"},
			{"topology mode", []string{"--topology-mode", "sockets", "g.hcl"}, "invalid topology-mode"},
			{"flush order", []string{"--flush-order", "random", "g.hcl"}, "invalid flush-order"},
			{"workers", []string{"--workers", "-1", "g.hcl"}, "invalid workers"},
			{"max groups", []string{"--topology-max-groups", "0", "g.hcl"}, "invalid topology-max-groups"},
			{"local memory", []string{"--worker-local-memory", "-5", "g.hcl"}, "invalid worker-local-memory"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, _, err := Parse(tc.args, &bytes.Buffer{})
				require.Error(t, err)

				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.want)
			})
		}
	})
}

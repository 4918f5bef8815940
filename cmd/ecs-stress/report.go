package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"text/template"
	"time"

	"github.com/plus3/chunkecs/ecs"
	"github.com/plus3/chunkecs/ecs/jobs"
)

type Report struct {
	// Configuration
	RunID    string
	Mode     string
	Workers  int
	Duration time.Duration
	Entities int
	Scenes   int
	Churn    int

	// Results
	TotalUpdates   int64
	TotalTime      time.Duration
	UpdateTime     Stats
	ScenesStats    []ecs.SceneStats
	Systems        []ecs.SystemStats
	Jobs           jobs.Stats
	Pool           ecs.ChunkPoolStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run ID:** {{.RunID}}
- **Run Duration:** {{.Duration}}
- **Schedule Mode:** {{.Mode}} ({{.Workers}} workers)
- **Scenes:** {{.Scenes}}
- **Initial Entities per Scene:** {{.Entities}}
- **Spawned per Frame:** {{.Churn}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
- **Jobs:** {{.Jobs.Scheduled}} scheduled, {{.Jobs.Batches}} batches, {{.Jobs.Failed}} failed

## Systems (scene 0)
{{range .Systems}}- {{.Name}}: avg {{.AvgDuration}}, max {{.MaxDuration}}, panics {{.PanicCount}}
{{end}}
## Storage
{{range .ScenesStats}}- Scene {{.Scene}}: {{.EntityCount}} entities in {{.ArchetypeCount}} archetypes, {{.ChunkCount}} chunks ({{mb .MemoryBytes}} MiB), {{.SingletonCount}} singletons
{{range .Archetypes}}  - [{{join .Components}}] {{.EntityCount}}/{{.Capacity}} ({{pct .Utilization}})
{{end}}{{end}}- Chunk pool: {{.Pool.Pooled}}/{{.Pool.Capacity}} pooled, {{.Pool.Allocated}} allocated, {{.Pool.Reused}} reused, {{.Pool.Dropped}} dropped

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

func (r *Report) Generate(w io.Writer) error {
	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case int:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"pct": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f*100)
		},
		"join": func(s []string) string {
			return strings.Join(s, ", ")
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}

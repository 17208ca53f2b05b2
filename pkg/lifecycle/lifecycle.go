// Package lifecycle maps almond status values onto display stages.
package lifecycle

import (
	"slices"
	"strings"
)

// Status is the raw status string stored on an almond.
type Status string

const (
	StatusNew            Status = "new"
	StatusUnderstood     Status = "understood"
	StatusEvolving       Status = "evolving"
	StatusMemorizing     Status = "memorizing"
	StatusActing         Status = "acting"
	StatusTargeting      Status = "targeting"
	StatusReviewingCycle Status = "reviewing_cycle"
	StatusCompleted      Status = "completed"
	StatusPromoting      Status = "promoting"
	StatusReflecting     Status = "reflecting"
	StatusPrecipitating  Status = "precipitating"
	StatusArchived       Status = "archived"

	// Task style statuses.
	StatusTodo      Status = "todo"
	StatusDoing     Status = "doing"
	StatusDone      Status = "done"
	StatusReviewing Status = "reviewing"
	StatusMastered  Status = "mastered"
)

// UnknownLabel is shown for an empty or unrecognized status.
const UnknownLabel = "未知状态"

// Stage is how a status is displayed.
type Stage struct {
	Status   Status
	Label    string
	Progress int
	// Known is false for the fallback stage.
	Known bool
}

var stages = map[Status]Stage{
	StatusNew:            {Label: "🌱 新杏仁", Progress: 10},
	StatusUnderstood:     {Label: "👀 被理解", Progress: 25},
	StatusEvolving:       {Label: "🔄 演化中", Progress: 40},
	StatusMemorizing:     {Label: "🧠 记忆", Progress: 55},
	StatusActing:         {Label: "✅ 行动", Progress: 55},
	StatusTargeting:      {Label: "🎯 目标", Progress: 55},
	StatusReviewingCycle: {Label: "🔁 复习", Progress: 70},
	StatusCompleted:      {Label: "✔ 完成", Progress: 85},
	StatusPromoting:      {Label: "📈 推进", Progress: 85},
	StatusReflecting:     {Label: "🪞 复盘", Progress: 95},
	StatusPrecipitating:  {Label: "🌰 沉淀", Progress: 100},
	StatusArchived:       {Label: "🌰 归档", Progress: 100},
	StatusTodo:           {Label: "待办", Progress: 20},
	StatusDoing:          {Label: "进行中", Progress: 50},
	StatusDone:           {Label: "已完成", Progress: 80},
	StatusReviewing:      {Label: "复习中", Progress: 60},
	StatusMastered:       {Label: "已掌握", Progress: 90},
}

// Lookup returns the stage for raw. Unknown values get a stage labelled
// with the raw value itself and zero progress.
func Lookup(raw string) Stage {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if st, ok := stages[s]; ok {
		st.Status = s
		st.Known = true
		return st
	}

	label := strings.TrimSpace(raw)
	if label == "" {
		label = UnknownLabel
	} else {
		label = UnknownLabel + " (" + label + ")"
	}
	return Stage{Status: s, Label: label}
}

// All lists every known stage ordered by progress, then status.
func All() []Stage {
	out := make([]Stage, 0, len(stages))
	for s, st := range stages {
		st.Status = s
		st.Known = true
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b Stage) int {
		if a.Progress != b.Progress {
			return a.Progress - b.Progress
		}
		return strings.Compare(string(a.Status), string(b.Status))
	})
	return out
}

package models

import "math"

// ClampProgress bounds a backend-reported progress value to [0,100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// OverallProgress is the mean progress over all units in the task list. A task
// with subtasks contributes one unit per subtask; a task without subtasks
// contributes itself as a single unit. Zero units yields 0.
func OverallProgress(tasks []Task) int {
	var sum, units int
	for _, t := range tasks {
		if len(t.Subtasks) == 0 {
			sum += ClampProgress(t.Progress)
			units++
			continue
		}
		for _, st := range t.Subtasks {
			sum += ClampProgress(st.Progress)
			units++
		}
	}
	if units == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(units)))
}

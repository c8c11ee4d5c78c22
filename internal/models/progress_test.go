package models

import "testing"

func TestClampProgress(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{140, 100},
	}

	for _, c := range cases {
		if got := ClampProgress(c.in); got != c.want {
			t.Errorf("ClampProgress(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestOverallProgress(t *testing.T) {
	cases := []struct {
		name  string
		tasks []Task
		want  int
	}{
		{
			name:  "no tasks",
			tasks: nil,
			want:  0,
		},
		{
			name:  "single task without subtasks",
			tasks: []Task{{Progress: 60}},
			want:  60,
		},
		{
			name: "tasks without subtasks average",
			tasks: []Task{
				{Progress: 100},
				{Progress: 0},
			},
			want: 50,
		},
		{
			name: "subtasks replace the task as units",
			tasks: []Task{
				{
					Progress: 999, // ignored, subtasks count instead
					Subtasks: []Subtask{
						{Progress: 100},
						{Progress: 100},
						{Progress: 0},
						{Progress: 0},
					},
				},
			},
			want: 50,
		},
		{
			name: "mixed tasks and subtasks",
			tasks: []Task{
				{Progress: 100},
				{Subtasks: []Subtask{{Progress: 0}, {Progress: 50}}},
			},
			want: 50,
		},
		{
			name: "out of range values clamped per unit",
			tasks: []Task{
				{Progress: -20},
				{Progress: 180},
			},
			want: 50,
		},
		{
			name: "rounding to nearest",
			tasks: []Task{
				{Progress: 33},
				{Progress: 33},
				{Progress: 34},
			},
			want: 33,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := OverallProgress(c.tasks); got != c.want {
				t.Fatalf("OverallProgress = %d, want %d", got, c.want)
			}
		})
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	for _, s := range []TaskStatus{StatusPending, StatusRunning, StatusGeneratingContent, StatusGeneratingImage, StatusRenderingPDF} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []TaskStatus{StatusComplete, StatusError} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

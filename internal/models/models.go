package models

type TaskStatus string

const (
	StatusPending           TaskStatus = "pending"
	StatusRunning           TaskStatus = "running"
	StatusGeneratingContent TaskStatus = "generating_content"
	StatusGeneratingImage   TaskStatus = "generating_image"
	StatusRenderingPDF      TaskStatus = "rendering_pdf"
	StatusComplete          TaskStatus = "complete"
	StatusError             TaskStatus = "error"
)

// Terminal reports whether the backend will never advance this status again.
func (s TaskStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

type Subtask struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
	Message  string     `json:"message,omitempty"`
}

// Task is the backend's unit of generated output. The panel holds a read-only
// copy refreshed on every poll.
type Task struct {
	ID        string     `json:"id"`
	BatchID   string     `json:"batch_id,omitempty"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message,omitempty"`
	CreatedAt string     `json:"created_at,omitempty"`
	Role      string     `json:"role,omitempty"`
	Error     string     `json:"error,omitempty"`
	Subtasks  []Subtask  `json:"subtasks,omitempty"`
	HTMLPath  string     `json:"html_path,omitempty"`
	PDFPath   string     `json:"pdf_path,omitempty"`
	ImagePath string     `json:"image_path,omitempty"`
}

// BatchStatus is the backend's answer to GET /api/status/{batch_id}.
type BatchStatus struct {
	ID         string `json:"id"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	InProgress int    `json:"in_progress"`
	IsComplete bool   `json:"is_complete"`
	Tasks      []Task `json:"tasks"`
}

type GenerationRequest struct {
	Qty             int      `json:"qty" binding:"required,min=1,max=50"`
	Genders         []string `json:"genders"`
	Ethnicities     []string `json:"ethnicities"`
	Origins         []string `json:"origins"`
	Roles           []string `json:"roles"`
	AgeMin          int      `json:"age_min"`
	AgeMax          int      `json:"age_max"`
	ExpertiseLevels []string `json:"expertise_levels"`
	Remote          bool     `json:"remote"`
	ProfileModel    string   `json:"profile_model,omitempty"`
	CVModel         string   `json:"cv_model,omitempty"`
	ImageModel      string   `json:"image_model,omitempty"`
}

type GenerationResponse struct {
	BatchID    string `json:"batch_id"`
	Message    string `json:"message"`
	TotalTasks int    `json:"total_tasks"`
}

// StatusSnapshot is the published aggregate over every tracked batch. It is
// replaced wholesale at tick boundaries, never mutated in place.
type StatusSnapshot struct {
	ActiveBatchIDs    []string `json:"active_batch_ids"`
	CompletedBatchIDs []string `json:"completed_batch_ids"`
	Tasks             []Task   `json:"tasks"`
	IsGenerating      bool     `json:"is_generating"`
	OverallProgress   int      `json:"overall_progress"`
}

type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ModelsResponse struct {
	LLMModels   []ModelInfo `json:"llm_models"`
	ImageModels []ModelInfo `json:"image_models"`
}

type FileInfo struct {
	Filename  string  `json:"filename"`
	Path      string  `json:"path"`
	CreatedAt string  `json:"created_at"`
	SizeKB    float64 `json:"size_kb"`
}

type FilesResponse struct {
	Files []FileInfo `json:"files"`
	Total int        `json:"total"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Request string `json:"request"`
	Error   string `json:"error"`
}

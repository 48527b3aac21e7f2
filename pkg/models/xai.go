package models

// XaiRequest asks the attribution service to score one frame.
type XaiRequest struct {
	ImageBase64      string   `json:"image_base64"`
	FrameNumber      int      `json:"frame_number"`
	Timestamp        string   `json:"timestamp"`
	SceneDescription string   `json:"scene_description,omitempty"`
	DetectedHazards  []string `json:"detected_hazards,omitempty"`
	GridSize         int      `json:"grid_size"`
}

// XaiCell is the attribution score for one grid patch.
type XaiCell struct {
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// XaiResult is the per-patch attribution grid plus a rendered heatmap overlay.
type XaiResult struct {
	FrameNumber        int       `json:"frame_number"`
	Timestamp          string    `json:"timestamp"`
	GridSize           int       `json:"grid_size"`
	Cells              []XaiCell `json:"cells"`
	MaxScore           float64   `json:"max_score"`
	HeatmapImageBase64 string    `json:"heatmap_image_base64"`
	Explanation        string    `json:"explanation"`
}

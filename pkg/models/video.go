package models

// Frame is a single sampled still extracted from an uploaded video.
// ImageBase64 carries a full "data:image/jpeg;base64," URI.
type Frame struct {
	FrameNumber      int     `json:"frame_number"`
	Timestamp        string  `json:"timestamp"`
	TimestampSeconds float64 `json:"timestamp_seconds"`
	ImageBase64      string  `json:"image_base64"`
}

// VideoInfo is the container-level metadata probed before frame extraction.
// It is passed verbatim into the final session report.
type VideoInfo struct {
	FPS               float64 `json:"fps"`
	TotalFrames       int     `json:"total_frames"`
	DurationSeconds   float64 `json:"duration_seconds"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DurationFormatted string  `json:"duration_formatted"`
}

package types

// Box is a pixel rectangle in image coordinates
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// HSV holds a mean color in 8-bit HSV units, rounded for display
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// Band is an inclusive HSV range
type Band struct {
	Lower HSV `json:"lower"`
	Upper HSV `json:"upper"`
}

// MarkerInfo describes the located yellow reference marker
type MarkerInfo struct {
	Box     Box    `json:"box"`
	MeanHSV HSV    `json:"mean_hsv"`
	Image   string `json:"image,omitempty"`
}

// StripInfo describes the scanned strip window below the marker
type StripInfo struct {
	Window    Box  `json:"window"`
	Band      Band `json:"band"`
	Boundary  int  `json:"boundary"`
	AllYellow bool `json:"all_yellow"`
}

// PadInfo describes the localized reagent pad
type PadInfo struct {
	Window Box    `json:"window"`
	Box    *Box   `json:"box,omitempty"`
	Image  string `json:"image,omitempty"`
}

// Report is the JSON view of one analysis
type Report struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	Reason     string      `json:"reason,omitempty"`
	Stage      string      `json:"stage"`
	Prediction *float64    `json:"prediction,omitempty"`
	Raw        *float64    `json:"raw_prediction,omitempty"`
	Features   []float64   `json:"features,omitempty"`
	Marker     *MarkerInfo `json:"marker,omitempty"`
	Strip      *StripInfo  `json:"strip,omitempty"`
	Pad        *PadInfo    `json:"pad,omitempty"`
}

// FileReport is a Report tagged with the file it came from
type FileReport struct {
	File   string  `json:"file"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
	Kind   string  `json:"kind,omitempty"`
}

// ProcessingOptions contains options for batch analysis
type ProcessingOptions struct {
	OutputDir    string
	Format       string
	Quality      int
	DebugOverlay bool
}

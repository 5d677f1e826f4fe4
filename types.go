package tspmip

type Instance struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Type    string `json:"type"`

	Dimension       int         `json:"dimension"`
	DisplayDataType string      `json:"display_data_type"`
	EdgeWeightType  string      `json:"edge_weight_type"`
	NodeCoordinates [][]float64 `json:"node_coordinates"`

	Solution *Solution `json:"solution,omitempty"`
}

type Solution struct {
	Algorithm  string  `json:"algorithm"`
	Cost       float64 `json:"cost"`
	LowerBound float64 `json:"lbound"`
	Optimal    bool    `json:"optimal"`
	Status     string  `json:"status"`
	Route      []int   `json:"route"`

	Iterations int `json:"iterations"`
	Cuts       int `json:"cuts"`

	RunID   string  `json:"run_id"`
	Time    string  `json:"time"`
	System  SysInfo `json:"system"`
	Comment string  `json:"comment"`
}

// SysInfo saves the basic system information
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}

// Gap returns the relative distance in percent between the solution cost and lb.
func (s *Solution) Gap(lb float64) float64 {
	if s.Cost == 0 {
		return 0
	}
	return ((s.Cost - lb) / s.Cost) * 100
}

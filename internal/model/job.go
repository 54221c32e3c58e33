package model

import (
	"math"
	"strconv"
)

// InvalidClusterID marks a job whose cluster column could not be parsed.
const InvalidClusterID = -1

// Coord is a visualization coordinate. NaN means the source value was
// unparseable and is encoded as JSON null.
type Coord float64

func (c Coord) Valid() bool {
	return !math.IsNaN(float64(c)) && !math.IsInf(float64(c), 0)
}

func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(c), 'f', -1, 64), nil
}

type Job struct {
	ID               int      `json:"id"`
	EmployeeID       string   `json:"employee_id"`
	Title            string   `json:"title"`
	TitleClean       string   `json:"title_clean"`
	Summary          string   `json:"summary"`
	Responsibilities string   `json:"responsibilities"`
	Qualifications   string   `json:"qualifications"`
	ClusterID        int      `json:"cluster_id"`
	ClusterLabel     string   `json:"cluster_label"`
	X                Coord    `json:"x"`
	Y                Coord    `json:"y"`
	Keywords         []string `json:"keywords"`
	Skills           []string `json:"skills"`
	JobLevel         string   `json:"job_level,omitempty"`
	DistanceToCenter float64  `json:"distance_to_center"`
}

type Cluster struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Jobs  []Job  `json:"jobs"`
}

// DuplicatePair is a pair of positions whose descriptions are nearly
// identical according to the offline similarity table.
type DuplicatePair struct {
	EmployeeA string  `json:"employee_1"`
	TitleA    string  `json:"title_1"`
	EmployeeB string  `json:"employee_2"`
	TitleB    string  `json:"title_2"`
	Score     float64 `json:"similarity_score"`
	Cluster   string  `json:"cluster"`
}

type ClusterMessiness struct {
	ClusterID      int     `json:"cluster_id"`
	Label          string  `json:"label"`
	Size           int     `json:"size"`
	DuplicatePairs int     `json:"duplicate_pairs"`
	Messiness      float64 `json:"messiness"`
}

package apimodel

import "time"

type Reading struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Seq       uint64    `json:"seq"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Stats struct {
	Seq       uint64 `json:"seq"`
	Accepted  uint64 `json:"accepted"`
	Unknown   uint64 `json:"unknown"`
	Malformed uint64 `json:"malformed"`
}

type SeriesStatus struct {
	Readings []Reading `json:"readings"`
	Stats    Stats     `json:"stats"`
}

type DisplayStatus struct {
	On bool `json:"on"`
}

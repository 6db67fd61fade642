// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package flight converts between the columnar flight documents kept in the document
// store and track segments, and cuts flights into the windows the batch run processes.
package flight

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/wneessen/nominal-track/internal/nominal"
	"github.com/wneessen/nominal-track/internal/track"
	"github.com/wneessen/nominal-track/internal/vartype"
)

// ErrColumnMismatch is returned when the columns of a flight document differ in length.
var ErrColumnMismatch = errors.New("flight document columns differ in length")

// Document is a recorded flight, stored column-wise. A null heading marks a sample
// without heading information.
type Document struct {
	ID           string     `json:"_id,omitempty" bson:"_id,omitempty"`
	FlightID     string     `json:"flight_id,omitempty" bson:"flight_id,omitempty"`
	FlightLength float64    `json:"flight_length" bson:"flight_length"`
	Lat          []float64  `json:"lat" bson:"lat"`
	Lon          []float64  `json:"lon" bson:"lon"`
	Hdg          []*float64 `json:"hdg" bson:"hdg"`
	Spd          []float64  `json:"spd" bson:"spd"`
	TS           []float64  `json:"ts" bson:"ts"`
	Alt          []float64  `json:"alt" bson:"alt"`
}

// Name returns the flight id, falling back to the document id.
func (d Document) Name() string {
	if d.FlightID != "" {
		return d.FlightID
	}
	return d.ID
}

// Segment returns the samples of the flight in document order.
func (d Document) Segment() (track.Segment, error) {
	n := len(d.TS)
	for name, l := range map[string]int{
		"lat": len(d.Lat), "lon": len(d.Lon), "hdg": len(d.Hdg), "spd": len(d.Spd), "alt": len(d.Alt),
	} {
		if l != n {
			return nil, fmt.Errorf("column %s has %d entries, ts has %d: %w", name, l, n, ErrColumnMismatch)
		}
	}

	seg := make(track.Segment, n)
	for i := range seg {
		seg[i] = track.Sample{
			Lat:       d.Lat[i],
			Lon:       d.Lon[i],
			Heading:   heading(d.Hdg[i]),
			Speed:     d.Spd[i],
			Timestamp: d.TS[i],
			Altitude:  d.Alt[i],
		}
	}
	return seg, nil
}

// heading converts a stored heading. Exports written from data frames carry missing
// headings as NaN instead of null.
func heading(hdg *float64) vartype.VarFloat64 {
	if hdg != nil && math.IsNaN(*hdg) {
		return vartype.VarFloat64{}
	}
	return vartype.FromPtr(hdg)
}

// Output is a processed window of a flight, stored column-wise. Track errors that
// could not be computed are stored as null.
type Output struct {
	SegmentID string     `json:"segment_id" bson:"segment_id"`
	FlightID  string     `json:"flight_id" bson:"flight_id"`
	Window    int        `json:"window" bson:"window"`
	Lat       []float64  `json:"lat" bson:"lat"`
	Lon       []float64  `json:"lon" bson:"lon"`
	Hdg       []*float64 `json:"hdg" bson:"hdg"`
	Spd       []float64  `json:"spd" bson:"spd"`
	TS        []float64  `json:"ts" bson:"ts"`
	Alt       []float64  `json:"alt" bson:"alt"`
	TimeEl    []float64  `json:"time_el" bson:"time_el"`
	CTE       []*float64 `json:"cte" bson:"cte"`
	ATE       []*float64 `json:"ate" bson:"ate"`
	TTE       []*float64 `json:"tte" bson:"tte"`
	TimeProj  []float64  `json:"time_proj" bson:"time_proj"`
	ProjLat   []*float64 `json:"proj_lat,omitempty" bson:"proj_lat,omitempty"`
	ProjLon   []*float64 `json:"proj_lon,omitempty" bson:"proj_lon,omitempty"`
}

// NewOutput converts the records of a flight window into an Output with a new segment id.
func NewOutput(flightID string, window int, records []track.Record) Output {
	n := len(records)
	out := Output{
		SegmentID: uuid.NewString(),
		FlightID:  flightID,
		Window:    window,
		Lat:       make([]float64, n),
		Lon:       make([]float64, n),
		Hdg:       make([]*float64, n),
		Spd:       make([]float64, n),
		TS:        make([]float64, n),
		Alt:       make([]float64, n),
		TimeEl:    make([]float64, n),
		CTE:       make([]*float64, n),
		ATE:       make([]*float64, n),
		TTE:       make([]*float64, n),
		TimeProj:  make([]float64, n),
	}
	for i, r := range records {
		out.Lat[i] = r.Lat
		out.Lon[i] = r.Lon
		out.Hdg[i] = r.Heading.Ptr()
		out.Spd[i] = r.Speed
		out.TS[i] = r.Timestamp
		out.Alt[i] = r.Altitude
		out.TimeEl[i] = r.Elapsed
		out.CTE[i] = finite(r.CrossTrack)
		out.ATE[i] = finite(r.AlongTrack)
		out.TTE[i] = finite(r.TotalTrack)
		out.TimeProj[i] = r.TimeProjected
	}
	return out
}

// SetProjection adds the nominal plot positions of the window. Samples without a
// projection are stored as null.
func (o *Output) SetProjection(projections []nominal.Projection) {
	if len(projections) == 0 {
		return
	}
	o.ProjLat = make([]*float64, len(projections))
	o.ProjLon = make([]*float64, len(projections))
	for i, p := range projections {
		if !p.Valid {
			continue
		}
		o.ProjLat[i] = finite(p.Lat)
		o.ProjLon[i] = finite(p.Lon)
	}
}

func finite(val float64) *float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return nil
	}
	return &val
}

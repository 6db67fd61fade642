// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package deviation

import (
	"fmt"
	"math"

	"github.com/wneessen/nominal-track/internal/track"
)

// BuildRecords computes the track errors of every sample in the segment against the
// first sample with a defined heading. Leading samples without a heading are dropped.
// If no sample has a heading, ok is false and no records are returned. The options
// are passed on to CalcTrackErrors.
//
// TimeProjected is the time since the earliest sample of the trimmed segment, taken
// from the timestamps so that it does not depend on Elapsed being set.
func BuildRecords(seg track.Segment, opts ...Option) (records []track.Record, ok bool, err error) {
	seg = seg.TrimToHeading()
	if len(seg) == 0 {
		return nil, false, nil
	}

	first := seg[0]
	ref := Reference{
		Waypoint:  first.Position(),
		Speed:     first.Speed,
		Heading:   first.Heading.Value(),
		Timestamp: first.Timestamp,
	}

	start := first.Timestamp
	for _, sample := range seg[1:] {
		start = math.Min(start, sample.Timestamp)
	}

	records = make([]track.Record, len(seg))
	for i, sample := range seg {
		record := track.Record{Sample: sample, TimeProjected: sample.Timestamp - start}
		// The reference sample has no deviation from itself.
		if i > 0 {
			record.Errors, err = CalcTrackErrors(ref, sample.Position(), sample.Timestamp, opts...)
			if err != nil {
				return nil, false, fmt.Errorf("failed to calculate track errors for sample %d: %w", i, err)
			}
		}
		records[i] = record
	}

	return records, true, nil
}

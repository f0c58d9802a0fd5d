package speedscope

import (
	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/calltree"
)

const (
	ValueUnitNanoseconds ValueUnit = "nanoseconds"

	EventTypeOpenFrame  EventType = "O"
	EventTypeCloseFrame EventType = "C"

	ProfileTypeEvented ProfileType = "evented"

	FormatVersion = "1"
)

type (
	Frame struct {
		Name    string `json:"name"`
		Package string `json:"package,omitempty"`
	}

	Event struct {
		Type  EventType `json:"type"`
		Frame int       `json:"frame"`
		At    uint64    `json:"at"`
	}

	EventedProfile struct {
		EndValue   uint64      `json:"endValue"`
		Events     []Event     `json:"events"`
		Name       string      `json:"name"`
		StartValue uint64      `json:"startValue"`
		Type       ProfileType `json:"type"`
		Unit       ValueUnit   `json:"unit"`
	}

	SharedData struct {
		Frames []Frame `json:"frames"`
	}

	EventType   string
	ProfileType string
	ValueUnit   string

	Output struct {
		ActiveProfileIndex int           `json:"activeProfileIndex"`
		DurationNS         uint64        `json:"durationNS"`
		Name               string        `json:"name"`
		ProfileID          string        `json:"profileID"`
		Profiles           []interface{} `json:"profiles"`
		Shared             SharedData    `json:"shared"`
		Version            string        `json:"version"`
	}
)

// FromRecords renders a balanced run as an evented flamechart. Records must
// be in emission order. Event times are relative to the first call's entry.
func FromRecords(name, profileID string, records []timetrack.Record) Output {
	out := Output{
		Name:      name,
		ProfileID: profileID,
		Profiles:  []interface{}{},
		Version:   FormatVersion,
	}
	roots := calltree.Build(records)
	if len(roots) == 0 {
		return out
	}

	base := roots[0].StartNS
	var end uint64
	frameIndexes := make(map[Frame]int)
	profile := EventedProfile{
		Name: name,
		Type: ProfileTypeEvented,
		Unit: ValueUnitNanoseconds,
	}

	var walk func(n *calltree.Node)
	walk = func(n *calltree.Node) {
		frame := Frame{Name: n.Name, Package: n.Package}
		index, exists := frameIndexes[frame]
		if !exists {
			index = len(out.Shared.Frames)
			frameIndexes[frame] = index
			out.Shared.Frames = append(out.Shared.Frames, frame)
		}
		profile.Events = append(profile.Events, Event{
			Type:  EventTypeOpenFrame,
			Frame: index,
			At:    n.StartNS - base,
		})
		for _, child := range n.Children {
			walk(child)
		}
		profile.Events = append(profile.Events, Event{
			Type:  EventTypeCloseFrame,
			Frame: index,
			At:    n.EndNS - base,
		})
		if n.EndNS-base > end {
			end = n.EndNS - base
		}
	}
	for _, root := range roots {
		walk(root)
	}

	profile.EndValue = end
	out.DurationNS = end
	out.Profiles = append(out.Profiles, profile)
	return out
}

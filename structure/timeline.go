package structure

import "time"

// GroupForTime returns the index of the group playing at t. The end time
// of the playlist maps to the last group.
func (s Media) GroupForTime(t time.Duration) (int, bool) {
	for i, g := range s.Groups {
		if g.Time.Contains(t) {
			return i, true
		}
	}
	if end, ok := s.EndTime(); ok && t == end {
		return len(s.Groups) - 1, true
	}
	return -1, false
}

// GroupForTagIndex returns the index of the group holding tag i.
func (s Media) GroupForTagIndex(i int) (int, bool) {
	for g, group := range s.Groups {
		if group.Range.Contains(i) {
			return g, true
		}
	}
	return -1, false
}

func (s Media) GroupForMediaSequence(seq int) (int, bool) {
	for g, group := range s.Groups {
		if group.MediaSequence == seq {
			return g, true
		}
	}
	return -1, false
}

func (s Media) StartTime() (time.Duration, bool) {
	if len(s.Groups) == 0 {
		return 0, false
	}
	return s.Groups[0].Time.Start, true
}

func (s Media) EndTime() (time.Duration, bool) {
	if len(s.Groups) == 0 {
		return 0, false
	}
	return s.Groups[len(s.Groups)-1].Time.End(), true
}

func (s Media) Duration() (time.Duration, bool) {
	start, ok := s.StartTime()
	if !ok {
		return 0, false
	}
	end, _ := s.EndTime()
	return end - start, true
}

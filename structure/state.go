package structure

type stateKind int

const (
	// the zero state: nothing has been computed yet
	stateRebuild stateKind = iota
	statePending
	stateClean
)

func (k stateKind) String() string {
	switch k {
	case stateRebuild:
		return "requires-full-rebuild"
	case statePending:
		return "pending-patches"
	default:
		return "clean"
	}
}

// state records edits made since the structure was last computed
type state struct {
	kind  stateKind
	edits []Edit
}

// record notes an edit. Once a rebuild is required no edits are kept.
func (s *state) record(e Edit, structural bool) {
	switch {
	case s.kind == stateRebuild:
	case structural:
		s.invalidate()
	default:
		s.kind = statePending
		s.edits = append(s.edits, e)
	}
}

func (s *state) invalidate() {
	s.kind, s.edits = stateRebuild, nil
}

func (s *state) clean() {
	s.kind, s.edits = stateClean, nil
}

func (s state) clone() state {
	s.edits = append([]Edit(nil), s.edits...)
	return s
}

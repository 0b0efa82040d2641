package model

type Status int

const (
	StatusCopied Status = iota
	StatusNoCaption
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCopied:
		return "copied"
	case StatusNoCaption:
		return "no caption"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one enumerated image. Position is the
// 1-based enumeration index used as the output name prefix.
type Outcome struct {
	Position    int
	Source      string
	Status      Status
	Caption     string
	Destination string
	Err         error
}

type Report struct {
	Outcomes []Outcome
}

func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) Total() int {
	return len(r.Outcomes)
}

// Count returns how many outcomes ended with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

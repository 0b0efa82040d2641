package model

import "sort"

type Caption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult holds the captions returned for one image, best first.
// A nil or empty Captions slice means the service had nothing to say.
type AnalysisResult struct {
	Captions []Caption `json:"captions"`
}

// First returns the highest ranked caption.
func (r *AnalysisResult) First() (Caption, bool) {
	if r == nil || len(r.Captions) == 0 {
		return Caption{}, false
	}
	return r.Captions[0], true
}

// SortByConfidence orders captions by descending confidence, keeping the
// service order for ties.
func (r *AnalysisResult) SortByConfidence() {
	if r == nil {
		return
	}
	sort.SliceStable(r.Captions, func(i, j int) bool {
		return r.Captions[i].Confidence > r.Captions[j].Confidence
	})
}

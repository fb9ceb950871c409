package adapter

import (
	"context"
	_ "embed"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"sift/internal/screen"
)

//go:embed cues.yaml
var cuesYAML []byte

type cueData struct {
	IncludeCues []string `yaml:"include_cues"`
	ExcludeCues []string `yaml:"exclude_cues"`
}

var (
	loadedCues *cueData
	cuesOnce   sync.Once
)

func getCues() *cueData {
	cuesOnce.Do(func() {
		var c cueData
		if err := yaml.Unmarshal(cuesYAML, &c); err != nil {
			panic(fmt.Sprintf("load cues.yaml: %v", err))
		}
		loadedCues = &c
	})
	return loadedCues
}

// StubVoter is a deterministic keyword voter standing in for a language
// model. It scores a record by overlap with the criteria's soft terms and
// the embedded study-design cues, plus a small per-(seed, model, record)
// tilt so different model IDs dissent occasionally. Identical inputs always
// produce the identical vote, which is what calibration tests rely on.
type StubVoter struct {
	modelID string
	cues    *cueData
}

func NewStubVoter(modelID string) *StubVoter {
	return &StubVoter{modelID: modelID, cues: getCues()}
}

func (s *StubVoter) Invoke(_ context.Context, req screen.InvokeRequest) (screen.ModelVote, error) {
	text := strings.ToLower(req.Record.Title + "\n" + req.Record.Abstract)

	var signal float64
	var hits []string
	if req.Criteria != nil {
		for _, t := range req.Criteria.IncludeTerms {
			if containsTerm(text, t) {
				signal += 0.22
				hits = append(hits, t)
			}
		}
		for _, t := range req.Criteria.ExcludeTerms {
			if containsTerm(text, t) {
				signal -= 0.30
				hits = append(hits, t)
			}
		}
	}
	for _, c := range s.cues.IncludeCues {
		if containsTerm(text, c) {
			signal += 0.15
			hits = append(hits, c)
		}
	}
	for _, c := range s.cues.ExcludeCues {
		if containsTerm(text, c) {
			signal -= 0.25
			hits = append(hits, c)
		}
	}

	// Deterministic per-model tilt in [-0.10, +0.10].
	signal += tilt(req.Seed, s.modelID, req.Record.ID)

	vote := screen.ModelVote{ModelID: s.modelID, Tier: req.Tier}
	switch {
	case req.Record.Abstract == "" && math.Abs(signal) < 0.4:
		vote.Decision = screen.VoteUnclear
		vote.Confidence = 0.3
		vote.Rationale = "no abstract available; title signal too weak"
	case signal >= 0.2:
		vote.Decision = screen.VoteInclude
		vote.Confidence = math.Min(0.95, 0.55+signal)
		vote.Rationale = "matched inclusion signals: " + strings.Join(hits, ", ")
	case signal <= -0.2:
		vote.Decision = screen.VoteExclude
		vote.Confidence = math.Min(0.95, 0.55-signal)
		vote.Rationale = "matched exclusion signals: " + strings.Join(hits, ", ")
	default:
		vote.Decision = screen.VoteUnclear
		vote.Confidence = 0.3 + math.Abs(signal)
		vote.Rationale = "mixed or weak signals"
	}
	return vote, nil
}

func containsTerm(text, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	return term != "" && strings.Contains(text, term)
}

// tilt derives a stable offset from the (seed, model, record) triple.
func tilt(seed int64, modelID, recordID string) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%s", seed, modelID, recordID)
	return float64(int64(h.Sum64()%21)-10) / 100.0
}

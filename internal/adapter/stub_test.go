package adapter

import (
	"context"
	"sync"
	"testing"

	"sift/internal/screen"
)

func stubRequest(rec screen.Record) screen.InvokeRequest {
	return screen.InvokeRequest{
		ModelID: "stub-alpha",
		Tier:    1,
		Record:  rec,
		Criteria: &screen.CriteriaSet{
			Description:  "Telehealth for type 2 diabetes",
			IncludeTerms: []string{"telehealth", "type 2 diabetes"},
			ExcludeTerms: []string{"pediatric"},
		},
		Seed: 42,
	}
}

func TestStubVoter_Deterministic(t *testing.T) {
	v := NewStubVoter("stub-alpha")
	req := stubRequest(screen.Record{
		ID:       "r001",
		Title:    "Telehealth for type 2 diabetes",
		Abstract: "A randomized controlled trial of remote monitoring.",
	})

	first, err := v.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	second, err := v.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if first != second {
		t.Errorf("stub voter is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestStubVoter_SignalDirection(t *testing.T) {
	v := NewStubVoter("stub-alpha")

	tests := []struct {
		name string
		rec  screen.Record
		want screen.VoteDecision
	}{
		{
			name: "strong inclusion signals",
			rec: screen.Record{
				ID:       "r-in",
				Title:    "Telehealth for type 2 diabetes",
				Abstract: "A randomized controlled trial with a control group.",
			},
			want: screen.VoteInclude,
		},
		{
			name: "strong exclusion signals",
			rec: screen.Record{
				ID:       "r-out",
				Title:    "A case report",
				Abstract: "Single-patient case report; editorial commentary on pediatric care.",
			},
			want: screen.VoteExclude,
		},
		{
			name: "missing abstract with weak title",
			rec: screen.Record{
				ID:    "r-bare",
				Title: "Remote care considerations",
			},
			want: screen.VoteUnclear,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vote, err := v.Invoke(context.Background(), stubRequest(tt.rec))
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if vote.Decision != tt.want {
				t.Errorf("decision = %s (conf %.2f, %q), want %s",
					vote.Decision, vote.Confidence, vote.Rationale, tt.want)
			}
			if vote.Confidence <= 0 || vote.Confidence > 1 {
				t.Errorf("confidence = %f outside (0,1]", vote.Confidence)
			}
			if vote.Rationale == "" {
				t.Error("vote must carry a rationale")
			}
		})
	}
}

func TestNewStubVoter_ConcurrentConstruction(t *testing.T) {
	// Voters are built per model from multiple goroutines; the shared cue
	// table must initialize exactly once without a race.
	req := stubRequest(screen.Record{
		ID:       "r001",
		Title:    "Telehealth for type 2 diabetes",
		Abstract: "A randomized controlled trial of remote monitoring.",
	})

	var wg sync.WaitGroup
	votes := make([]screen.ModelVote, 8)
	for i := range votes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := NewStubVoter("stub-alpha").Invoke(context.Background(), req)
			if err != nil {
				t.Errorf("Invoke: %v", err)
				return
			}
			votes[i] = v
		}()
	}
	wg.Wait()

	for i := 1; i < len(votes); i++ {
		if votes[i] != votes[0] {
			t.Errorf("vote %d diverged: %+v vs %+v", i, votes[i], votes[0])
		}
	}
}

func TestTilt(t *testing.T) {
	// The tilt must stay inside its band, be stable per triple, and vary
	// across model/record pairs, otherwise escalation never has dissent to
	// resolve.
	models := []string{"stub-alpha", "stub-beta", "stub-gamma", "stub-delta"}
	records := []string{"r001", "r002", "r003", "r004", "r005"}

	seen := make(map[float64]bool)
	for _, m := range models {
		for _, r := range records {
			v := tilt(42, m, r)
			if v < -0.10 || v > 0.10 {
				t.Errorf("tilt(42, %s, %s) = %f outside [-0.10, 0.10]", m, r, v)
			}
			if v != tilt(42, m, r) {
				t.Errorf("tilt(42, %s, %s) not stable", m, r)
			}
			seen[v] = true
		}
	}
	if len(seen) < 2 {
		t.Errorf("tilt produced %d distinct values over %d pairs, want variation",
			len(seen), len(models)*len(records))
	}
}

// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"testing"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name       string
		cand       Candidate
		wantStatus Status
		wantReason string
		wantConf   int
	}{
		{
			name:       "five strict hits confirm",
			cand:       Candidate{Tier1Hits: 5, AvgDistanceMeters: 20},
			wantStatus: StatusConfirmed,
			wantConf:   59, // 100 * (0.6*0.5 + 0.4*50/70)
		},
		{
			name:       "threshold is inclusive",
			cand:       Candidate{Tier1Hits: 3, AvgDistanceMeters: 0},
			wantStatus: StatusConfirmed,
			wantConf:   58,
		},
		{
			name:       "single strict hit rejected",
			cand:       Candidate{Tier1Hits: 1, AvgDistanceMeters: 10},
			wantStatus: StatusRejected,
		},
		{
			name:       "cross tier suggests",
			cand:       Candidate{Tier2Hits: 6, Tier3Hits: 4, AvgDistanceMeters: 900},
			wantStatus: StatusSuggested,
			wantReason: "cross-tier: 6 pings within tier-2 radius, 4 within tier-3 radius",
		},
		{
			name:       "cross tier below threshold rejected",
			cand:       Candidate{Tier2Hits: 2, Tier3Hits: 2},
			wantStatus: StatusRejected,
		},
		{
			name:       "check-in suggests",
			cand:       Candidate{Tier3Hits: 1, CheckInNearby: true},
			wantStatus: StatusSuggested,
			wantReason: ReasonCheckIn,
		},
		{
			name:       "check-in does not downgrade a confirmation",
			cand:       Candidate{Tier1Hits: 4, CheckInNearby: true, AvgDistanceMeters: 5},
			wantStatus: StatusConfirmed,
			wantConf:   60,
		},
		{
			name:       "cross tier reason wins over check-in",
			cand:       Candidate{Tier2Hits: 5, CheckInNearby: true},
			wantStatus: StatusSuggested,
			wantReason: "cross-tier: 5 pings within tier-2 radius, 0 within tier-3 radius",
		},
		{
			name:       "no evidence rejected",
			cand:       Candidate{},
			wantStatus: StatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(&tt.cand)
			if got.Status != tt.wantStatus {
				t.Fatalf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.wantStatus == StatusConfirmed && got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %d, want %d", got.Confidence, tt.wantConf)
			}
			if tt.wantStatus != StatusConfirmed && got.Confidence != 0 {
				t.Errorf("Confidence = %d, want 0 for non-confirmed", got.Confidence)
			}
		})
	}
}

func TestConfidenceMonotonic(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	for dist := 0.0; dist <= 50; dist += 5 {
		prev := -1
		for hits := 1; hits <= 30; hits++ {
			got := c.Confidence(hits, dist)
			if got < prev {
				t.Fatalf("Confidence(%d, %v) = %d dropped below %d", hits, dist, got, prev)
			}
			if got < 0 || got > 100 {
				t.Fatalf("Confidence(%d, %v) = %d out of range", hits, dist, got)
			}
			prev = got
		}
	}

	for hits := 1; hits <= 20; hits++ {
		prev := 101
		for dist := 0.0; dist <= 100; dist += 2.5 {
			got := c.Confidence(hits, dist)
			if got > prev {
				t.Fatalf("Confidence(%d, %v) = %d rose above %d", hits, dist, got, prev)
			}
			prev = got
		}
	}
}

// A farther hit raises the count and the average together; the score may
// drop because proximity outweighs one extra hit.
func TestConfidenceFavoursTightClusters(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tight := c.Confidence(3, 0)
	spread := c.Confidence(4, 50.0/4)
	if tight != 58 || spread != 56 {
		t.Errorf("Confidence(3, 0), Confidence(4, 12.5) = %d, %d; want 58, 56", tight, spread)
	}
	if more := c.Confidence(4, 0); more < tight {
		t.Errorf("Confidence(4, 0) = %d, want at least %d with the average held", more, tight)
	}
}

func TestConfidenceSaturates(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	if got := c.Confidence(10, 0); got != 100 {
		t.Errorf("Confidence(10, 0) = %d, want 100", got)
	}
	if got := c.Confidence(500, 0); got != 100 {
		t.Errorf("Confidence(500, 0) = %d, want 100", got)
	}
	if got := c.Confidence(0, 0); got != 0 {
		t.Errorf("Confidence(0, 0) = %d, want 0", got)
	}
}

func TestClassifyAll(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cands := []Candidate{
		{PlaceID: "p-weak", Date: "2024-03-01", Tier1Hits: 3, AvgDistanceMeters: 40},
		{PlaceID: "p-none", Date: "2024-03-01", Tier1Hits: 1},
		{PlaceID: "p-strong", Date: "2024-03-01", Tier1Hits: 12, AvgDistanceMeters: 3},
		{PlaceID: "p-near", Date: "2024-03-02", Tier2Hits: 5},
		{PlaceID: "p-checkin", Date: "2024-03-01", Tier3Hits: 1, CheckInNearby: true},
	}

	observed := map[Status]int{}
	confirmed, suggested := c.ClassifyAll(cands, func(s Status) { observed[s]++ })

	if len(confirmed) != 2 {
		t.Fatalf("confirmed = %d, want 2", len(confirmed))
	}
	if confirmed[0].PlaceID != "p-strong" || confirmed[1].PlaceID != "p-weak" {
		t.Errorf("confirmed order = [%s %s], want [p-strong p-weak]", confirmed[0].PlaceID, confirmed[1].PlaceID)
	}
	if len(suggested) != 2 {
		t.Fatalf("suggested = %d, want 2", len(suggested))
	}
	if observed[StatusConfirmed] != 2 || observed[StatusSuggested] != 2 || observed[StatusRejected] != 1 {
		t.Errorf("observed = %v", observed)
	}
}

func TestSortCandidates(t *testing.T) {
	mk := func(id string, date LocalDate, conf int, avg float64, hits int) ClassifiedCandidate {
		return ClassifiedCandidate{
			Candidate:      Candidate{PlaceID: id, Date: date, AvgDistanceMeters: avg, Tier1Hits: hits},
			Classification: Classification{Status: StatusConfirmed, Confidence: conf},
		}
	}

	cands := []ClassifiedCandidate{
		mk("e", "2024-01-02", 80, 10, 5),
		mk("e", "2024-01-01", 80, 10, 5),
		mk("d", "2024-01-01", 80, 10, 5),
		mk("c", "2024-01-01", 80, 10, 9),
		mk("b", "2024-01-01", 80, 5, 5),
		mk("a", "2024-01-01", 90, 30, 3),
	}
	SortCandidates(cands)

	want := []struct {
		id   string
		date LocalDate
	}{
		{"a", "2024-01-01"}, // highest confidence
		{"b", "2024-01-01"}, // closer on average
		{"c", "2024-01-01"}, // more hits
		{"d", "2024-01-01"}, // place id
		{"e", "2024-01-01"}, // date
		{"e", "2024-01-02"},
	}
	for i, w := range want {
		if cands[i].PlaceID != w.id || cands[i].Date != w.date {
			t.Errorf("cands[%d] = %s/%s, want %s/%s", i, cands[i].PlaceID, cands[i].Date, w.id, w.date)
		}
	}
}

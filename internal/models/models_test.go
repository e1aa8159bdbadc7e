package models

import "testing"

func TestStoreFirstWriteWins(t *testing.T) {
	s := NewStore()

	if !s.Set(Text(TagArtist, "Boards of Canada")) {
		t.Error("expected first write to succeed")
	}

	if s.Set(Text(TagArtist, "Autechre")) {
		t.Error("expected second write to be rejected")
	}

	if got := s.Text(TagArtist); got != "Boards of Canada" {
		t.Errorf("expected first value to survive, got %q", got)
	}

	s.Force(Text(TagArtist, "Autechre"))

	if got := s.Text(TagArtist); got != "Autechre" {
		t.Errorf("expected forced value, got %q", got)
	}
}

func TestStoreAccessors(t *testing.T) {
	s := NewStore()
	s.Set(Text(TagTitle, "Roygbiv"))
	s.Set(Int(TagTrackNumber, 7))
	s.Set(Float(TagMatchScore, 0.93))
	s.Set(Blob(TagCoverArt, []byte{0xff, 0xd8}))

	if !s.HasAll(TagTitle, TagTrackNumber) {
		t.Error("expected title and tracknumber present")
	}

	if s.HasAll(TagTitle, TagLyrics) {
		t.Error("did not expect lyrics to be present")
	}

	if n, ok := s.Int(TagTrackNumber); !ok || n != 7 {
		t.Errorf("expected track 7, got %d (ok=%v)", n, ok)
	}

	tag, ok := s.Get(TagMatchScore)
	if !ok {
		t.Fatal("expected score tag")
	}

	if f, ok := tag.FloatValue(); !ok || f != 0.93 {
		t.Errorf("expected score 0.93, got %f", f)
	}

	art, _ := s.Get(TagCoverArt)
	if len(art.BlobValue()) != 2 {
		t.Errorf("expected 2 artwork bytes, got %d", len(art.BlobValue()))
	}

	names := s.Names()
	if len(names) != 4 || names[0] != TagMatchScore {
		t.Errorf("unexpected sorted names: %v", names)
	}
}

func TestTagIntValue(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
		want int
		ok   bool
	}{
		{"int kind", Int(TagTrackNumber, 4), 4, true},
		{"plain text", Text(TagTrackNumber, "12"), 12, true},
		{"slash suffix", Text(TagTrackNumber, "3/12"), 3, true},
		{"not a number", Text(TagTrackNumber, "three"), 0, false},
		{"blob kind", Blob(TagCoverArt, nil), 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.tag.IntValue()
			if ok != tc.ok || got != tc.want {
				t.Errorf("IntValue() = %d, %v; want %d, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestFileTaskSummary(t *testing.T) {
	task := NewFileTask("t1", "/music/a.flac")
	task.Record(CogOutcome{Cog: "fingerprint", Status: OutcomeSuccess})
	task.Record(CogOutcome{Cog: "lyrics", Status: OutcomeFailed, Error: "timeout"})
	task.Status = FilePartial
	task.Output = "/out/A/2020 - B/01 - C.flac"

	if !task.Failed() {
		t.Error("expected task to report a failed outcome")
	}

	sum := task.Summary()
	if sum.Status != FilePartial || len(sum.Outcomes) != 2 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestJobTerminal(t *testing.T) {
	for _, status := range []JobStatus{JobCompleted, JobFailed, JobCancelled} {
		if !(Job{Status: status}).Terminal() {
			t.Errorf("expected %s to be terminal", status)
		}
	}

	for _, status := range []JobStatus{JobPending, JobProcessing} {
		if (Job{Status: status}).Terminal() {
			t.Errorf("did not expect %s to be terminal", status)
		}
	}
}

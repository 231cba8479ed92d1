package agent

import (
	"strings"
	"testing"

	"unifiedsearch/queryservice/internal/domain"
)

func TestMovieInstructionJoinsCriteria(t *testing.T) {
	instruction := MovieInstruction(domain.MovieCriteria{
		Genre:     "comedy",
		Actor:     "Tom Hanks",
		Year:      "1994",
		MinRating: 7.5,
	}, 3)
	if !strings.Contains(instruction, "top 3 movies") {
		t.Errorf("missing count: %s", instruction)
	}
	if !strings.Contains(instruction, "genre: comedy, actor: Tom Hanks, year: 1994, minimum rating: 7.5") {
		t.Errorf("unexpected criteria description: %s", instruction)
	}
	if !strings.Contains(instruction, "relay that error message") {
		t.Errorf("missing error relay clause: %s", instruction)
	}
}

func TestMovieInstructionDefaultsToPopular(t *testing.T) {
	instruction := MovieInstruction(domain.MovieCriteria{}, 5)
	if !strings.Contains(instruction, "popular movies") {
		t.Errorf("missing default description: %s", instruction)
	}
}

func TestMusicInstruction(t *testing.T) {
	instruction := MusicInstruction(domain.MusicCriteria{Artist: "Adele"}, 5)
	if !strings.Contains(instruction, "artist: Adele") {
		t.Errorf("unexpected criteria description: %s", instruction)
	}

	if fallback := MusicInstruction(domain.MusicCriteria{}, 5); !strings.Contains(fallback, "popular music") {
		t.Errorf("missing default description: %s", fallback)
	}
}

func TestNewsInstruction(t *testing.T) {
	instruction := NewsInstruction("climate change", 7)
	if !strings.Contains(instruction, `"climate change"`) {
		t.Errorf("missing topic: %s", instruction)
	}
	if !strings.Contains(instruction, "up\nto 7 articles") && !strings.Contains(instruction, "to 7 articles") {
		t.Errorf("missing count: %s", instruction)
	}
}

func TestGeneralInstruction(t *testing.T) {
	instruction := GeneralInstruction("what is the capital of France")
	if !strings.Contains(instruction, `"what is the capital of France"`) {
		t.Errorf("missing query: %s", instruction)
	}
	if !strings.Contains(instruction, "knowledge graph") {
		t.Errorf("missing knowledge graph guidance: %s", instruction)
	}
}

func TestPassthroughEchoesPayload(t *testing.T) {
	content, err := Passthrough{}.Format(t.Context(), "instruction", `[{"title":"x"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != `[{"title":"x"}]` {
		t.Fatalf("unexpected content: %q", content)
	}
}

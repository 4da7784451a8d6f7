package player_test

import (
	"testing"

	"github.com/dscarebd/quran-insight-sub003/internal/domain/player"
)

func TestRepeatModeCycle(t *testing.T) {
	tests := []struct {
		from player.RepeatMode
		to   player.RepeatMode
	}{
		{player.RepeatNone, player.RepeatVerse},
		{player.RepeatVerse, player.RepeatSurah},
		{player.RepeatSurah, player.RepeatAB},
		{player.RepeatAB, player.RepeatNone},
	}

	for _, tt := range tests {
		if got := tt.from.Next(); got != tt.to {
			t.Errorf("%s.Next() = %s, want %s", tt.from, got, tt.to)
		}
	}
}

func TestRepeatModeString(t *testing.T) {
	tests := []struct {
		mode player.RepeatMode
		want string
	}{
		{player.RepeatNone, "none"},
		{player.RepeatVerse, "verse"},
		{player.RepeatSurah, "surah"},
		{player.RepeatAB, "ab"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestStateToJSON(t *testing.T) {
	st := player.State{
		IsPlaying:  true,
		Surah:      2,
		Verse:      255,
		RepeatMode: player.RepeatAB,
		ABStart:    250,
		ABEnd:      260,
		ReciterID:  "alafasy",
	}

	m := st.ToJSON()

	if m["isPlaying"] != true {
		t.Error("expected isPlaying true")
	}
	if m["surah"] != 2 || m["verse"] != 255 {
		t.Errorf("unexpected coordinates %v:%v", m["surah"], m["verse"])
	}
	if m["repeatMode"] != "ab" {
		t.Errorf("expected repeatMode ab, got %v", m["repeatMode"])
	}
	if m["reciter"] != "alafasy" {
		t.Errorf("expected reciter alafasy, got %v", m["reciter"])
	}
}

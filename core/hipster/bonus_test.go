package hipster

import "testing"

func TestNormalizeGuess(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bohemian Rhapsody", "bohemian rhapsody"},
		{"Bohemian Rhapsody (Remastered 2011)", "bohemian rhapsody"},
		{"HUMBLE. [Explicit]", "humble"},
		{"Uptown Funk feat. Bruno Mars", "uptown funk"},
		{"Uptown Funk ft Bruno Mars", "uptown funk"},
		{"Uptown Funk featuring Bruno Mars", "uptown funk"},
		{"  Don't   Stop  Me Now! ", "dont stop me now"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeGuess(tt.in); got != tt.want {
			t.Errorf("NormalizeGuess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		name  string
		guess string
		truth string
		want  bool
	}{
		{"完全一致", "Queen", "Queen", true},
		{"大小写不敏感", "queen", "Queen", true},
		{"空猜测拒绝", "", "Queen", false},
		{"空白猜测拒绝", "   ", "Queen", false},
		{"命中单个分词", "Rhapsody", "Bohemian Rhapsody", true},
		{"命中冠词外的分词", "Beatles", "The Beatles", true},
		{"多词猜测不做分词匹配", "The Beatles", "Beatles", false},
		{"一字拼错容忍", "Bohemian Rapsody", "Bohemian Rhapsody", true},
		{"缺词超出容忍", "Bohemian Rap", "Bohemian Rhapsody", false},
		{"括号后缀忽略", "Bohemian Rhapsody", "Bohemian Rhapsody (Remastered 2011)", true},
		{"完全不同", "Thriller", "Bohemian Rhapsody", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FuzzyMatch(tt.guess, tt.truth); got != tt.want {
				t.Fatalf("FuzzyMatch(%q, %q) = %v, want %v", tt.guess, tt.truth, got, tt.want)
			}
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"bohemian rapsody", "bohemian rhapsody", 1},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

package game

const (
	BasePoints = 10
	FastBonus  = 5
	OkBonus    = 3
	SkipPoints = -2

	fastReactionMs = 5000
	okReactionMs   = 10000
)

// Points scores a guess. Incorrect guesses score zero; a missing reaction
// time earns no bonus.
func Points(correct bool, reactionTimeMs *int) int {
	if !correct {
		return 0
	}
	points := BasePoints
	if reactionTimeMs == nil {
		return points
	}
	switch ms := *reactionTimeMs; {
	case ms < fastReactionMs:
		points += FastBonus
	case ms < okReactionMs:
		points += OkBonus
	}
	return points
}

// IsCorrect compares song identifiers exactly.
func IsCorrect(guessedSongID string, round Round) bool {
	return guessedSongID != "" && guessedSongID == round.SongID
}

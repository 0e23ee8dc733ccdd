package rating

import "math"

const (
	// KFactor is fixed for all players and modes.
	KFactor = 32
	// Scale is the logistic curve constant: a Scale-point gap means the
	// stronger player is expected to win ten times as often.
	Scale = 400
	// Default is the rating a player row is created with.
	Default = 1000
)

// ExpectedScore returns the probability that a player rated a beats a player
// rated b under the logistic model.
func ExpectedScore(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/Scale))
}

// ComputeUpdate returns the post-match ratings for a decided game.
// Results are rounded to the nearest integer with math.Round (ties away from
// zero). Ratings are never clamped: a loser on a long losing streak can go
// negative.
func ComputeUpdate(winnerRating, loserRating int) (newWinner, newLoser int) {
	expectedWin := ExpectedScore(winnerRating, loserRating)
	newWinner = int(math.Round(float64(winnerRating) + KFactor*(1-expectedWin)))
	newLoser = int(math.Round(float64(loserRating) - KFactor*expectedWin))
	return newWinner, newLoser
}

// Rank returns the display tier for a rating.
func Rank(rating int) string {
	switch {
	case rating < 800:
		return "Bronze"
	case rating < 1000:
		return "Silver"
	case rating < 1200:
		return "Gold"
	case rating < 1400:
		return "Platinum"
	case rating < 1600:
		return "Diamond"
	default:
		return "Master"
	}
}

package match

import "errors"

// Validation errors are surfaced verbatim to the requesting player. None of
// them leave any state change behind.
var (
	ErrAlreadyInMatch      = errors.New("you're already in an active match")
	ErrAlreadyJoined       = errors.New("you've already joined this match")
	ErrMatchFull           = errors.New("match is full")
	ErrTeamFull            = errors.New("team is already full")
	ErrNotInMatch          = errors.New("you're not in this match")
	ErrNotAMember          = errors.New("you're not part of this match")
	ErrCountdownInProgress = errors.New("the match hasn't started yet, wait for the countdown to finish")
	ErrMatchNotFull        = errors.New("not enough players to report a win")
	ErrHostAlreadyHosting  = errors.New("you already have a match running")
	ErrMatchNotFound       = errors.New("match no longer exists")
	ErrInvalidMode         = errors.New("invalid game mode")
	ErrInvalidTeam         = errors.New("invalid team")
	ErrInvalidWinner       = errors.New("selected winner is not part of this match")
	ErrInvalidReport       = errors.New("winners and losers don't fit the game mode")
	ErrSelectionExpired    = errors.New("selection expired, please try again")
)

// ErrSurfaceGone is returned by Presenter.Attach when a persisted render
// surface cannot be recovered after a restart.
var ErrSurfaceGone = errors.New("render surface no longer exists")

var validationErrs = []error{
	ErrAlreadyInMatch, ErrAlreadyJoined, ErrMatchFull, ErrTeamFull,
	ErrNotInMatch, ErrNotAMember, ErrCountdownInProgress, ErrMatchNotFull,
	ErrHostAlreadyHosting, ErrMatchNotFound, ErrInvalidMode, ErrInvalidTeam,
	ErrInvalidWinner, ErrInvalidReport, ErrSelectionExpired,
}

// IsValidationError reports whether err is a guard rejection that should be
// shown to the requesting player rather than logged as a failure.
func IsValidationError(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

package weather

import (
	"errors"
	"fmt"
)

// FetchFailureMessage is the only failure text shown to users.
const FetchFailureMessage = "Failed to fetch weather data"

// ErrFetchFailure matches every error returned by Client.DailyForecast.
var ErrFetchFailure = errors.New("fetch failure")

// FetchStage records where a forecast fetch broke down. It only feeds logs;
// users always see FetchFailureMessage.
type FetchStage string

const (
	StageRequest   FetchStage = "request"
	StageTransport FetchStage = "transport"
	StageStatus    FetchStage = "status"
	StageDecode    FetchStage = "decode"
	StageSchema    FetchStage = "schema"
)

// FetchError describes a failed forecast fetch.
type FetchError struct {
	Stage      FetchStage
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("forecast %s failed (HTTP %d): %v", e.Stage, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("forecast %s failed: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports ErrFetchFailure for every FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailure
}

package telegram

import (
	"strconv"
	"strings"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

// Callback action constants.
const (
	actionTest    = "test"  // rules screen
	actionAnswer  = "ans"   // ans:<question id>:<option id>
	actionNav     = "nav"   // nav:prev|next|<index>
	actionTracker = "trk"   // question tracker grid
	actionSubmit  = "sub"   // manual submit
	actionExit    = "exit"  // exit dialog
	actionReview  = "rev"   // rev:prev|next|trk|<index>
	actionOpen    = "open"  // open:<kind>:<attempt id>
	actionPaper   = "paper" // paper:<paper id>
	actionNoop    = "noop"
)

// Rules screen sub-actions.
const (
	testStart  = "start"
	testCancel = "cancel"
)

// Navigation sub-actions shared by the test and the review.
const (
	navPrev = "prev"
	navNext = "next"
	navTrk  = "trk"
)

// Exit dialog sub-actions.
const (
	exitStay   = "stay"
	exitSubmit = "submit"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// param returns the i-th parameter or an empty string.
func (cd callbackData) param(i int) string {
	if i < 0 || i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

// int64Param parses the i-th parameter.
func (cd callbackData) int64Param(i int) (int64, bool) {
	v, err := strconv.ParseInt(cd.param(i), 10, 64)
	return v, err == nil
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// belongsToTest reports whether the callback drives the running test itself.
// Anything else pressed during a test counts as an attempt to leave it.
func (cd callbackData) belongsToTest() bool {
	switch cd.Action {
	case actionAnswer, actionNav, actionTracker, actionSubmit, actionExit, actionNoop:
		return true
	}
	return false
}

func buildTestCallback(sub string) string {
	return callbackData{Action: actionTest, Params: []string{sub}}.encode()
}

func buildAnswerCallback(questionID, optionID int64) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{
			strconv.FormatInt(questionID, 10),
			strconv.FormatInt(optionID, 10),
		},
	}.encode()
}

func buildNavCallback(sub string) string {
	return callbackData{Action: actionNav, Params: []string{sub}}.encode()
}

func buildJumpCallback(index int) string {
	return buildNavCallback(strconv.Itoa(index))
}

func buildTrackerCallback() string {
	return actionTracker
}

func buildSubmitCallback() string {
	return actionSubmit
}

func buildExitCallback(sub string) string {
	return callbackData{Action: actionExit, Params: []string{sub}}.encode()
}

func buildReviewCallback(sub string) string {
	return callbackData{Action: actionReview, Params: []string{sub}}.encode()
}

func buildReviewJumpCallback(index int) string {
	return buildReviewCallback(strconv.Itoa(index))
}

func buildOpenCallback(kind entities.TestKind, attemptID int64) string {
	return callbackData{
		Action: actionOpen,
		Params: []string{string(kind), strconv.FormatInt(attemptID, 10)},
	}.encode()
}

func buildPaperCallback(paperID int64) string {
	return callbackData{
		Action: actionPaper,
		Params: []string{strconv.FormatInt(paperID, 10)},
	}.encode()
}

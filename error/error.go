package error

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hackcelestial/sports-bridge/bridge"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/sirupsen/logrus"
)

var log = logger.Get()

// APIErrorMessage is an object that defines when a generic error occurred
type APIErrorMessage struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// APIOKMessage wraps every successful payload.
type APIOKMessage struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// HandleError is a generic error handler
func HandleError(tag string, errorMsg string, rawErr error, code int, w http.ResponseWriter, r *http.Request) {
	entry := log.WithFields(logrus.Fields{
		"prefix":   tag,
		"errorMsg": errorMsg,
		"path":     r.URL.Path,
	})
	if code >= http.StatusInternalServerError {
		entry.Error(rawErr)
	} else {
		entry.Debug(rawErr)
	}

	errorObj := APIErrorMessage{"error", errorMsg}
	responseMsg, err := json.Marshal(&errorObj)

	if err != nil {
		log.WithField("prefix", tag).Error("[Error Handler] Couldn't marshal error stats: ", err)
		fmt.Fprintf(w, "System Error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(responseMsg)
}

// HandleHttpError reports an action failure using its own message and status.
func HandleHttpError(tag string, httpErr *bridge.HttpError, w http.ResponseWriter, r *http.Request) {
	HandleError(tag, httpErr.Message, httpErr.Error, httpErr.Code, w, r)
}

// WriteOK writes data inside the success envelope.
func WriteOK(tag string, data interface{}, w http.ResponseWriter, r *http.Request) {
	WriteJSON(tag, http.StatusOK, APIOKMessage{Status: "ok", Data: data}, w, r)
}

// WriteJSON writes any value as JSON with the given status.
func WriteJSON(tag string, code int, v interface{}, w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(v)
	if err != nil {
		HandleError(tag, "Couldn't encode response", err, http.StatusInternalServerError, w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

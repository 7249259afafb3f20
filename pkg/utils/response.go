package utils

// ResponseData is the JSON envelope every REST endpoint returns. Status
// rides on the HTTP response only, not in the body.
type ResponseData struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on a non-nil error so the recovery middleware can turn
// typed errors into proper HTTP responses. Handlers use it for failures that
// should not be handled inline.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}

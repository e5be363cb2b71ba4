package engine

// Code is the closed set of runtime failure codes an Exception may carry.
// This set is exhaustive by spec; never add a string-typed freeform code.
type Code string

const (
	CodeCoreNotReady                 Code = "CoreNotReady"
	CodePerformInputError            Code = "PerformInputError"
	CodePrepareSecurityMapError      Code = "PrepareSecurityMapError"
	CodeInvalidSecurityConfiguration Code = "InvalidSecurityConfiguration"
	CodeMapInterpretationError       Code = "MapInterpretationError"
	CodeHostTransportError           Code = "HostTransportError"
	CodeInputValidationError         Code = "InputValidationError"
)

// Exception is the runtime-failure surface (surface 1 of 3 per the error
// handling design): always carries a closed Code and a human-readable
// message, propagated to the host as a perform-output exception response.
// It is never used for a usecase-declared error value — see perform.Result.
type Exception struct {
	Code    Code
	Message string
}

func (e *Exception) Error() string {
	return string(e.Code) + ": " + e.Message
}

func NewException(code Code, message string) *Exception {
	return &Exception{Code: code, Message: message}
}

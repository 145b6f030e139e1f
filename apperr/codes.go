package apperr

import "net/http"

type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"

	// auth
	CodeInvalidCredentials     Code = "INVALID_CREDENTIALS"
	CodeEmailAlreadyRegistered Code = "EMAIL_ALREADY_REGISTERED"
	CodeWeakPassword           Code = "WEAK_PASSWORD"
	CodeInvalidEmailFormat     Code = "INVALID_EMAIL_FORMAT"
	CodeRateLimited            Code = "RATE_LIMITED"

	// relationships
	CodeOperationInProgress Code = "OPERATION_IN_PROGRESS"
	CodePeerNotFound        Code = "PEER_NOT_FOUND"
	CodeAlreadyFriends      Code = "ALREADY_FRIENDS"
	CodeTransient           Code = "TRANSIENT"

	// messaging
	CodeEmptyOrOversizeContent Code = "EMPTY_OR_OVERSIZE_CONTENT"
	CodeSendFailed             Code = "SEND_FAILED"

	// location
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeUnavailable      Code = "UNAVAILABLE"
)

var statusByCode = map[Code]int{
	CodeUnknown:                http.StatusInternalServerError,
	CodeInvalidArgument:        http.StatusBadRequest,
	CodeUnauthenticated:        http.StatusUnauthorized,
	CodeForbidden:              http.StatusForbidden,
	CodeNotFound:               http.StatusNotFound,
	CodeInternal:               http.StatusInternalServerError,
	CodeInvalidCredentials:     http.StatusUnauthorized,
	CodeEmailAlreadyRegistered: http.StatusConflict,
	CodeWeakPassword:           http.StatusBadRequest,
	CodeInvalidEmailFormat:     http.StatusBadRequest,
	CodeRateLimited:            http.StatusTooManyRequests,
	CodeOperationInProgress:    http.StatusConflict,
	CodePeerNotFound:           http.StatusNotFound,
	CodeAlreadyFriends:         http.StatusOK,
	CodeTransient:              http.StatusServiceUnavailable,
	CodeEmptyOrOversizeContent: http.StatusBadRequest,
	CodeSendFailed:             http.StatusBadGateway,
	CodePermissionDenied:       http.StatusForbidden,
	CodeUnavailable:            http.StatusServiceUnavailable,
}

// HTTPStatus maps a code to the status the API answers with.
func HTTPStatus(code Code) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

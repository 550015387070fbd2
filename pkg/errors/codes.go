package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	CodeOK                 ErrorCode = "OK"
	CodeUnknown            ErrorCode = "COMMON_000"
	CodeInternal           ErrorCode = "COMMON_001"
	CodeInvalidParam       ErrorCode = "COMMON_002"
	CodeUnauthorized       ErrorCode = "COMMON_003"
	CodeForbidden          ErrorCode = "COMMON_004"
	CodeNotFound           ErrorCode = "COMMON_005"
	CodeConflict           ErrorCode = "COMMON_006"
	CodeRateLimit          ErrorCode = "COMMON_007"
	CodeServiceUnavailable ErrorCode = "COMMON_008"
	CodeTimeout            ErrorCode = "COMMON_009"
	CodeValidation         ErrorCode = "COMMON_010"
	CodeSerialization      ErrorCode = "COMMON_011"
	CodeDatabaseError      ErrorCode = "COMMON_012"
	CodeCacheError         ErrorCode = "COMMON_013"
	CodeStorageError       ErrorCode = "COMMON_014"
	CodeMessageQueueError  ErrorCode = "COMMON_015"
	CodeSearchError        ErrorCode = "COMMON_016"
)

// Catalog error codes cover the remote geospatial catalog service.
const (
	CodeAssetNotFound      ErrorCode = "CAT_001"
	CodeCatalogUnavailable ErrorCode = "CAT_002"
	CodeCatalogAuthFailed  ErrorCode = "CAT_003"
	CodeCatalogDecodeError ErrorCode = "CAT_004"
	CodeEmptyCollection    ErrorCode = "CAT_005"
)

// Raster error codes cover local raster algebra failures.
const (
	CodeBandNotFound      ErrorCode = "RAS_001"
	CodeGridMismatch      ErrorCode = "RAS_002"
	CodeReductionTooLarge ErrorCode = "RAS_003"
	CodeEmptyRegion       ErrorCode = "RAS_004"
	CodeScaleMismatch     ErrorCode = "RAS_005"
)

// Analysis-run error codes.
const (
	CodeRunNotFound     ErrorCode = "RUN_001"
	CodeRunInvalidState ErrorCode = "RUN_002"
	CodeRunFailed       ErrorCode = "RUN_003"
)

// AOI error codes.
const (
	CodeAOINotFound        ErrorCode = "AOI_001"
	CodeAOIInvalidGeometry ErrorCode = "AOI_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.  Codes not listed
// here map to 500 via HTTPStatus.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	CodeInternal:           http.StatusInternalServerError,
	CodeInvalidParam:       http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeRateLimit:          http.StatusTooManyRequests,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeTimeout:            http.StatusGatewayTimeout,
	CodeValidation:         http.StatusUnprocessableEntity,
	CodeSerialization:      http.StatusInternalServerError,
	CodeDatabaseError:      http.StatusInternalServerError,
	CodeCacheError:         http.StatusInternalServerError,
	CodeStorageError:       http.StatusInternalServerError,
	CodeMessageQueueError:  http.StatusInternalServerError,
	CodeSearchError:        http.StatusInternalServerError,

	CodeAssetNotFound:      http.StatusNotFound,
	CodeCatalogUnavailable: http.StatusBadGateway,
	CodeCatalogAuthFailed:  http.StatusBadGateway,
	CodeCatalogDecodeError: http.StatusBadGateway,
	CodeEmptyCollection:    http.StatusNotFound,

	CodeBandNotFound:      http.StatusBadRequest,
	CodeGridMismatch:      http.StatusInternalServerError,
	CodeReductionTooLarge: http.StatusUnprocessableEntity,
	CodeEmptyRegion:       http.StatusUnprocessableEntity,
	CodeScaleMismatch:     http.StatusInternalServerError,

	CodeRunNotFound:     http.StatusNotFound,
	CodeRunInvalidState: http.StatusConflict,
	CodeRunFailed:       http.StatusInternalServerError,

	CodeAOINotFound:        http.StatusNotFound,
	CodeAOIInvalidGeometry: http.StatusBadRequest,
}

// HTTPStatus returns the HTTP status code for an ErrorCode, defaulting to 500
// for codes without an explicit mapping.
func HTTPStatus(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matzehuels/orgtree/pkg/forest"

	apperrors "github.com/matzehuels/orgtree/pkg/errors"
)

// errorBody is the JSON error envelope returned for every failed request.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorBody{Error: errorDetail{
		Code:    string(code),
		Message: apperrors.UserMessage(err),
	}})
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeDuplicateNode:
		return http.StatusConflict
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidNode,
		apperrors.ErrCodeInvalidEdge, apperrors.ErrCodeInvalidChart,
		apperrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeNodeNotFound,
		apperrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeExternal:
		return http.StatusBadGateway
	case apperrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// mutationError maps forest sentinel errors onto the structured error
// taxonomy so API clients see stable codes instead of raw messages.
func mutationError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, forest.ErrInvalidNodeID):
		return apperrors.Wrap(apperrors.ErrCodeInvalidNode, err, "invalid node ID")
	case errors.Is(err, forest.ErrDuplicateNodeID):
		return apperrors.Wrap(apperrors.ErrCodeDuplicateNode, err, "node already exists")
	case errors.Is(err, forest.ErrUnknownParentNode):
		return apperrors.Wrap(apperrors.ErrCodeNodeNotFound, err, "parent node not found")
	case errors.Is(err, forest.ErrUnknownChildNode):
		return apperrors.Wrap(apperrors.ErrCodeNodeNotFound, err, "child node not found")
	case errors.Is(err, forest.ErrNodeHasParent):
		return apperrors.Wrap(apperrors.ErrCodeInvalidEdge, err, "node already has a parent")
	case errors.Is(err, forest.ErrWouldCycle):
		return apperrors.Wrap(apperrors.ErrCodeInvalidEdge, err, "edge would create a cycle")
	default:
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "mutation failed")
	}
}

package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
)

const grpcErrorDomain = "atomengine"

type Error struct {
	code       ERR
	message    string
	wrappedErr error
	data       ErrDataI
}

type Interface interface {
	Error() string
	Is(target error) bool
	As(target interface{}) bool
	Unwrap() error

	Code() ERR
	Message() string
	WrappedErr() error
	Data() ErrDataI
}

func (e *Error) Error() string {
	// predefined errors may be nil when wrapped
	if e == nil {
		return "<nil>"
	}

	dataMsg := ""
	if e.data != nil {
		dataMsg = e.data.Error()
	}

	if e.wrappedErr == nil {
		if dataMsg == "" {
			return fmt.Sprintf("Error: %s (error code: %d), Message: %v", e.code.Enum(), e.code, e.message)
		}

		return fmt.Sprintf("Error: %s (error code: %d), Message: %v, Data: %s", e.code.Enum(), e.code, e.message, dataMsg)
	}

	if dataMsg == "" {
		return fmt.Sprintf("Error: %s (error code: %d), Message: %v, Wrapped err: %v", e.code.Enum(), e.code, e.message, e.wrappedErr)
	}

	return fmt.Sprintf("Error: %s (error code: %d), Message: %v, Wrapped err: %v, Data: %s", e.code.Enum(), e.code, e.message, e.wrappedErr, dataMsg)
}

// Is reports whether error codes match anywhere in the wrapped chain.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}

	targetError, ok := target.(*Error)
	if !ok {
		return strings.Contains(e.Error(), target.Error())
	}

	if e.code == targetError.code {
		return true
	}

	if e.wrappedErr == nil {
		return false
	}

	if ue, ok := e.wrappedErr.(*Error); ok {
		return ue.Is(target)
	}

	return false
}

func (e *Error) As(target interface{}) bool {
	if e == nil {
		return false
	}

	if targetErr, ok := target.(**Error); ok {
		*targetErr = e
		return true
	}

	// check if Data matches the target type
	if e.data != nil {
		if data, ok := e.data.(error); ok && errors.As(data, target) {
			return true
		}
	}

	if e.wrappedErr != nil {
		if reflect.ValueOf(e.wrappedErr).Kind() == reflect.Ptr && reflect.ValueOf(e.wrappedErr).IsNil() {
			return false
		}

		return errors.As(e.wrappedErr, target)
	}

	return false
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Code() ERR {
	if e == nil {
		return ERR_UNKNOWN
	}

	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

func (e *Error) WrappedErr() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Data() ErrDataI {
	if e == nil {
		return nil
	}

	return e.data
}

func (e *Error) SetData(key string, value interface{}) {
	if e.data == nil {
		e.data = &ErrData{}
	}

	var data *ErrData
	if errors.As(e.data, &data) {
		data.SetData(key, value)
	}
}

func (e *Error) GetData(key string) interface{} {
	if e.data == nil {
		return nil
	}

	return e.data.GetData(key)
}

// New creates a coded error. A trailing error parameter is kept as the wrapped
// error; the remaining parameters format the message.
func New(code ERR, message string, params ...interface{}) *Error {
	var wErr error

	if len(params) > 0 {
		lastParam := params[len(params)-1]

		switch err := lastParam.(type) {
		case *Error:
			wErr = err
			params = params[:len(params)-1]
		case error:
			wErr = err
			params = params[:len(params)-1]
		}
	}

	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}

	if _, ok := ERR_name[int32(code)]; !ok {
		return &Error{
			code:       code,
			message:    "invalid error code",
			wrappedErr: wErr,
		}
	}

	return &Error{
		code:       code,
		message:    message,
		wrappedErr: wErr,
	}
}

// NewWithData creates a coded error carrying structured data.
func NewWithData(code ERR, message string, data ErrDataI, params ...interface{}) *Error {
	e := New(code, message, params...)
	e.data = data

	return e
}

// WrapGRPC converts err into a gRPC status error. Every *Error in the wrapped
// chain becomes one ErrorInfo detail, outermost first.
func WrapGRPC(err error) error {
	if err == nil {
		return nil
	}

	castedErr, ok := err.(*Error)
	if !ok {
		st := status.New(ErrorCodeToGRPCCode(ERR_UNKNOWN), err.Error())

		st, detailsErr := st.WithDetails(errorInfo(ERR_ERROR, err.Error(), nil))
		if detailsErr != nil {
			return New(ERR_ERROR, "error adding details to the error's gRPC status", err)
		}

		return st.Err()
	}

	if castedErr.wrappedErr != nil {
		if _, ok := status.FromError(castedErr.wrappedErr); ok {
			return err
		}
	}

	var details []protoadapt.MessageV1

	var current error = castedErr
	for current != nil {
		if e, ok := current.(*Error); ok {
			details = append(details, errorInfo(e.code, e.message, e.data))
			current = e.wrappedErr

			continue
		}

		details = append(details, errorInfo(ERR_ERROR, current.Error(), nil))
		current = nil
	}

	st := status.New(ErrorCodeToGRPCCode(castedErr.code), castedErr.message)

	st, detailsErr := st.WithDetails(details...)
	if detailsErr != nil {
		return New(ERR_ERROR, "error adding details to the error's gRPC status", err)
	}

	return st.Err()
}

func errorInfo(code ERR, message string, data ErrDataI) *errdetails.ErrorInfo {
	info := &errdetails.ErrorInfo{
		Reason: code.Enum(),
		Domain: grpcErrorDomain,
		Metadata: map[string]string{
			"code":    strconv.Itoa(int(code)),
			"message": message,
		},
	}

	if data != nil {
		info.Metadata["data"] = string(data.EncodeErrorData())
	}

	return info
}

// UnwrapGRPC rebuilds the *Error chain produced by WrapGRPC.
func UnwrapGRPC(err error) *Error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return &Error{
			code:       ERR_ERROR,
			message:    "error unwrapping gRPC details",
			wrappedErr: err,
		}
	}

	details := st.Details()
	if len(details) == 0 {
		return &Error{
			code:    ERR_ERROR,
			message: st.Message(),
		}
	}

	var prevErr, currErr *Error

	for i := len(details) - 1; i >= 0; i-- {
		info, ok := details[i].(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != grpcErrorDomain {
			continue
		}

		code, convErr := strconv.Atoi(info.GetMetadata()["code"])
		if convErr != nil {
			code = int(ERR_ERROR)
		}

		currErr = New(ERR(code), info.GetMetadata()["message"])

		if dataStr, ok := info.GetMetadata()["data"]; ok {
			if data, dataErr := GetErrorData(ERR(code), []byte(dataStr)); dataErr == nil {
				currErr.data = data
			}
		}

		if prevErr != nil {
			currErr.wrappedErr = prevErr
		}

		prevErr = currErr
	}

	if currErr == nil {
		return &Error{
			code:    ERR_ERROR,
			message: st.Message(),
		}
	}

	return currErr
}

// ErrorCodeToGRPCCode maps error codes to gRPC status codes.
func ErrorCodeToGRPCCode(code ERR) codes.Code {
	switch code {
	case ERR_UNKNOWN:
		return codes.Unknown
	case ERR_INVALID_ARGUMENT, ERR_STATELESS, ERR_PROCEDURE, ERR_HOOK, ERR_TERMINAL_STATE:
		return codes.InvalidArgument
	case ERR_THRESHOLD_EXCEEDED:
		return codes.ResourceExhausted
	case ERR_NOT_FOUND:
		return codes.NotFound
	case ERR_CONFLICT, ERR_ALREADY_EXISTS:
		return codes.AlreadyExists
	case ERR_MISSING_DEPENDENCY:
		return codes.FailedPrecondition
	case ERR_CONTEXT_CANCELED:
		return codes.Canceled
	case ERR_SERVICE_UNAVAILABLE, ERR_STORAGE_UNAVAILABLE:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func Join(errs ...error) error {
	var messages []string

	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) == 0 {
		return nil
	}

	return errors.New(strings.Join(messages, ", "))
}

func Is(err, target error) bool {
	if isGRPCWrappedError(err) {
		err = UnwrapGRPC(err)
	}

	return errors.Is(err, target)
}

// AsData walks the wrapped chain looking for error data assignable to target.
func AsData(err error, target interface{}) bool {
	if isGRPCWrappedError(err) {
		err = UnwrapGRPC(err)
	}

	if castedErr, ok := err.(*Error); ok {
		if castedErr.data != nil {
			if dataErr, ok := castedErr.data.(error); ok && errors.As(dataErr, target) {
				return true
			}
		}

		if castedErr.wrappedErr != nil {
			return AsData(castedErr.wrappedErr, target)
		}
	}

	return false
}

func As(err error, target any) bool {
	if isGRPCWrappedError(err) {
		err = UnwrapGRPC(err)
	}

	return errors.As(err, target)
}

func isGRPCWrappedError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(*Error); ok {
		return false
	}

	_, ok := status.FromError(err)

	return ok
}

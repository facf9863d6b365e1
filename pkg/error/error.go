package error

// GenericError is implemented by every typed error in this package. The REST
// recovery middleware uses it to translate panics into HTTP responses.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}

package response

// Business status codes.
const (
	CodeSuccess = 0
	CodeError   = 1

	// Auth errors 100xx
	ErrAuthFailed   = 10001
	ErrTokenInvalid = 10002
	ErrNoPermission = 10003

	// Order module errors 200xx
	ErrOrderNotFound      = 20001
	ErrInvalidTransition  = 20002
	ErrStatusUnchanged    = 20003
	ErrVariantUnavailable = 20004

	// Payment module errors 300xx
	ErrPaymentGateway = 30001
	ErrInvalidPhone   = 30002

	// System errors 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)

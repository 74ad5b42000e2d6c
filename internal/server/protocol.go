package server

import "github.com/shopspring/decimal"

// Actions dispatched over the secure protocol.
const (
	actionLogin      = "login"
	actionRegister   = "register"
	actionGetMarkets = "get_markets"
)

// Stable error codes the desktop client branches on.
const (
	errInvalidRequest     = "invalid_request"
	errInvalidCredentials = "invalid_credentials"
	errUserExists         = "user_exists"
	errDB                 = "db_error"
	errUnknownAction      = "unknown_action"
)

type request struct {
	Action   string `json:"action"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
	UserID   int64           `json:"userId"`
}

type registerResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

package errors

import "errors"

var (
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrNilTransaction           = errors.New("transaction is nil")
	ErrInvalidTransactionStatus = errors.New("invalid transaction status")
	ErrInvalidPaymentMode       = errors.New("invalid payment mode")
	ErrTransactionNotSettleable = errors.New("transaction is not in a settleable status")
	ErrNFTNotFound              = errors.New("nft not found")
	ErrNFTUnavailable           = errors.New("nft is sold or reserved")
	ErrNFTLocked                = errors.New("nft is locked by another purchase")
	ErrUserNotFound             = errors.New("user not found")
	ErrRequestAlreadyProcessed  = errors.New("request already processed")
	ErrInvalidInput             = errors.New("invalid input")
)

package transformer

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTxID      = errors.New("missing or invalid tx id")
	ErrMissingInData    = errors.New("no in data found")
	ErrMissingOutData   = errors.New("no out data found")
	ErrMissingInCoin    = errors.New("missing coin")
	ErrMissingAssetName = errors.New("error parsing asset name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// TransformError marks a single raw record as unusable. It never aborts a page.
type TransformError struct {
	Source string
	TxID   string
	Err    error
}

func (e *TransformError) Error() string {
	if e.TxID == "" {
		return fmt.Sprintf("%s: failed to transform record: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s: failed to transform record %s: %v", e.Source, e.TxID, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

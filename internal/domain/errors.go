package domain

import "errors"

var (
	ErrWrongStage   = errors.New("operation not available in the current onboarding stage")
	ErrOutsideScope = errors.New("used outside a resolved scope")
)

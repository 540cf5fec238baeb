package model

import "errors"

// Domain conflicts surfaced to the admin API.
var (
	ErrRankAlreadyPresent = errors.New("player already has rank")
	ErrRankNotPresent     = errors.New("player does not have rank")
	ErrTagAlreadyPresent  = errors.New("player already has tag")
	ErrTagNotPresent      = errors.New("player does not have tag")
	ErrSessionInactive    = errors.New("player has no active session")
	ErrNameTaken          = errors.New("name already in use")
)

package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
)

var (
	playerNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{1,16}$`)
	ipv4Re       = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
)

type validationError struct {
	Field string
	Value any
}

func (e *validationError) Error() string {
	if e.Field == "" {
		return "validation failed: ensure the JSON body only contains relevant keys"
	}
	return fmt.Sprintf("validation failed for '%s' (value: %v)", e.Field, e.Value)
}

func invalid(field string, value any) error {
	return &validationError{Field: field, Value: value}
}

// decodeBody reads a JSON body, rejecting unknown keys.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &validationError{}
	}
	return nil
}

func checkPlayerName(field, name string) error {
	if !playerNameRe.MatchString(name) {
		return invalid(field, name)
	}
	return nil
}

func checkIPv4(field, ip string) error {
	if !ipv4Re.MatchString(ip) {
		return invalid(field, ip)
	}
	return nil
}

func checkRequired(field, v string) error {
	if v == "" {
		return invalid(field, v)
	}
	return nil
}

// hashIP is the only form in which player addresses are stored.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

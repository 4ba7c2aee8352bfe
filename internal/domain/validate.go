package domain

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/lores-mesh/site-admin/internal/result"
)

const maxFieldLen = 50

var (
	reName = regexp.MustCompile(`^[a-z]+(-[a-z]+)*$`)
	reIPv4 = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
)

func invalid(field, format string, args ...interface{}) *result.DomainError {
	return &result.DomainError{
		Status:  http.StatusUnprocessableEntity,
		Code:    result.CodeValidation,
		Message: field + ": " + fmt.Sprintf(format, args...),
	}
}

// ValidateName checks region, node and site names.
func ValidateName(field, name string) *result.DomainError {
	switch {
	case name == "":
		return invalid(field, "this is required")
	case len(name) > maxFieldLen:
		return invalid(field, "must be less than %d characters", maxFieldLen)
	case !reName.MatchString(name):
		return invalid(field, "lowercase letters only, no spaces, hyphens allowed")
	}
	return nil
}

func validateNodeID(field, id string) *result.DomainError {
	switch {
	case strings.TrimSpace(id) == "":
		return invalid(field, "this is required")
	case len(id) > maxFieldLen:
		return invalid(field, "must be less than %d characters", maxFieldLen)
	}
	return nil
}

// ValidateIPv4 accepts dotted-quad addresses with octets 0-255.
func ValidateIPv4(field, ip string) *result.DomainError {
	if ip == "" {
		return invalid(field, "this is required")
	}
	if !reIPv4.MatchString(ip) {
		return invalid(field, "must be a valid IPv4 address")
	}
	for _, octet := range strings.Split(ip, ".") {
		if n, err := strconv.Atoi(octet); err != nil || n > 255 {
			return invalid(field, "must be a valid IPv4 address")
		}
	}
	return nil
}

func (f NewRegion) Validate() *result.DomainError {
	return ValidateName("name", f.Name)
}

func (f JoinRegion) Validate() *result.DomainError {
	if err := ValidateName("network_name", f.NetworkName); err != nil {
		return err
	}
	if f.BootstrapPeer == nil {
		return nil
	}
	return f.BootstrapPeer.Validate()
}

func (p BootstrapPeer) Validate() *result.DomainError {
	if err := validateNodeID("node_id", p.NodeID); err != nil {
		return err
	}
	return ValidateIPv4("ip4", p.IP4)
}

func (f NewLocal) Validate() *result.DomainError {
	return ValidateName("name", f.Name)
}

func (f BootstrapNode) Validate() *result.DomainError {
	if err := ValidateName("network_name", f.NetworkName); err != nil {
		return err
	}
	if err := validateNodeID("node_id", f.NodeID); err != nil {
		return err
	}
	return ValidateIPv4("ip_address", f.IPAddress)
}

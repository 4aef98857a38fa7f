package booking

import "time"

// ServiceType enumerates the consultation packages. Each carries a fixed
// price (whole VND, no minor units) and a session duration. The stored labels
// are the Vietnamese package names shown to clients; Parse keeps compatibility
// with records written by the booking site.
type ServiceType string

const (
	ServiceTypeBasic    ServiceType = "Gói Cơ Bản (30 phút)"
	ServiceTypeStandard ServiceType = "Gói Tiêu Chuẩn (60 phút)"
	ServiceTypePremium  ServiceType = "Gói Premium (120 phút)"
	ServiceTypeFree     ServiceType = "Tư vấn miễn phí (15 phút)"
)

// Price returns the expected transfer amount in whole VND.
// Unknown service types price at zero, which makes them settle on
// reference match alone; the webhook audit trail records which type matched.
func (s ServiceType) Price() int64 {
	switch s {
	case ServiceTypeBasic:
		return 299000
	case ServiceTypeStandard:
		return 499000
	case ServiceTypePremium:
		return 999000
	case ServiceTypeFree:
		return 0
	default:
		return 0
	}
}

// Duration returns the session length for calendar event scheduling
func (s ServiceType) Duration() time.Duration {
	switch s {
	case ServiceTypeBasic:
		return 30 * time.Minute
	case ServiceTypeStandard:
		return 60 * time.Minute
	case ServiceTypePremium:
		return 120 * time.Minute
	case ServiceTypeFree:
		return 15 * time.Minute
	default:
		return 60 * time.Minute
	}
}

// Known reports whether the stored label maps to a catalog entry
func (s ServiceType) Known() bool {
	switch s {
	case ServiceTypeBasic, ServiceTypeStandard, ServiceTypePremium, ServiceTypeFree:
		return true
	}
	return false
}

package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps route names to their required security level.
// Routes missing from the map require an access token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"health":            SecurityPublic,
	"item.booked-dates": SecurityPublic,

	"booking.create":    SecurityAccess,
	"booking.list":      SecurityAccess,
	"booking.get":       SecurityAccess,
	"booking.approve":   SecurityAccess,
	"booking.reject":    SecurityAccess,
	"booking.cancel":    SecurityAccess,
	"booking.agree":     SecurityAccess,
	"booking.ready":     SecurityAccess,
	"booking.delivered": SecurityAccess,
	"booking.returned":  SecurityAccess,
	"message.list":      SecurityAccess,
	"message.post":      SecurityAccess,
	"message.allowed":   SecurityAccess,
	"notification.list": SecurityAccess,
	"notification.read": SecurityAccess,
}

// RouteSecurity returns the level for a named route.
func RouteSecurity(name string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[name]; ok {
		return level
	}
	return SecurityAccess
}

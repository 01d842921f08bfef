package credential

import "time"

// Kind is a coarse classification used for display.
type Kind string

const (
	KindPassword Kind = "password"
	KindAPIKey   Kind = "api_key"
	KindExternal Kind = "external"
	KindUnknown  Kind = "unknown"
)

// Description is a display projection of a credential. It never exposes a
// password hash; API key values are masked to the last four characters.
type Description struct {
	Type        string
	Kind        Kind
	TypeCaption string
	Identity    string
	Created     time.Time
	Expires     time.Time
}

// Describe projects a credential for display. Pure function, no side effects.
func Describe(c Credential) Description {
	desc := Description{
		Type:    c.Type,
		Created: c.Created,
		Expires: c.Expires,
	}

	switch {
	case c.IsPassword():
		desc.Kind = KindPassword
		desc.TypeCaption = "Password"
	case c.IsAPIKey():
		desc.Kind = KindAPIKey
		desc.TypeCaption = "API Key (v1)"
		desc.Identity = maskValue(c.Value)
	case c.IsExternal():
		desc.Kind = KindExternal
		desc.TypeCaption = "External account: " + c.ExternalProvider()
		desc.Identity = c.Value
	default:
		desc.Kind = KindUnknown
		desc.TypeCaption = c.Type
	}

	return desc
}

func maskValue(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

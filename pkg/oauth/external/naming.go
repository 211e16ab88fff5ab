package external

// MaxUsernameLength is the longest local username the host storage accepts.
const MaxUsernameLength = 50

// OAuthIdentifier namespaces remoteID with providerName, so providers sharing a numeric id
// space never collide.
func OAuthIdentifier(providerName, remoteID string) string {
	return providerName + "|" + remoteID
}

// Username returns providerName + "_" + handle, truncated to MaxUsernameLength characters.
func Username(providerName, handle string) string {
	return truncate(providerName+"_"+handle, MaxUsernameLength)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

package redis

const (
	// KeyPrefix namespaces every tabwarden key
	KeyPrefix = "tabwarden:"
	// KeyWhitelist holds the JSON whitelist, in insertion order
	KeyWhitelist = KeyPrefix + "whitelist"
	// KeyHistory holds the JSON eviction history, oldest first
	KeyHistory = KeyPrefix + "history"
	// KeyOptions holds the JSON eviction options
	KeyOptions = KeyPrefix + "options"
	// KeyRules holds the JSON rule set last applied through the API
	KeyRules = KeyPrefix + "rules"
)

// StateKeys lists every key the store owns
func StateKeys() []string {
	return []string{KeyWhitelist, KeyHistory, KeyOptions, KeyRules}
}

package config

import "gorm.io/gorm"

// Bot holds the Discord side configuration.
type Bot struct {
	Token string
	// DefaultPrefixes apply to channels without their own prefixes.
	DefaultPrefixes []string
	// HistoryLimit caps how many channel messages a reload reads.
	HistoryLimit int
	// PrimeRule enables the prime scoring category.
	PrimeRule bool
	// CommandRate is the sustained analytics commands per second allowed per user.
	CommandRate  float64
	CommandBurst int
	Enabled      bool
}

// LoadBot loads the Discord bot configuration. Prefixes are separated by "|" so they may
// contain spaces.
func LoadBot(db *gorm.DB) Bot {
	_ = LoadSettings(db)

	prefixes := parseList(GetSetting("default_prefixes", "DEFAULT_PREFIXES", "c!|!count "))
	if len(prefixes) == 0 {
		prefixes = []string{"c!"}
	}

	return Bot{
		Token:           GetSetting("discord_token", "DISCORD_TOKEN", ""),
		DefaultPrefixes: prefixes,
		HistoryLimit:    getIntSetting("history_limit", "HISTORY_LIMIT", 10100),
		PrimeRule:       getBoolSetting("prime_rule", "PRIME_RULE", true),
		CommandRate:     getFloatSetting("command_rate", "COMMAND_RATE", 0.5),
		CommandBurst:    getIntSetting("command_burst", "COMMAND_BURST", 3),
		Enabled:         getBoolSetting("enable_bot", "ENABLE_BOT", true),
	}
}

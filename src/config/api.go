package config

import (
	"strings"

	"gorm.io/gorm"
)

// API holds the statistics HTTP server configuration.
type API struct {
	Addr           string
	AllowedOrigins []string
	// RequestRate is the sustained requests per second allowed per client.
	RequestRate  float64
	RequestBurst int
	Enabled      bool
}

// LoadAPI loads the statistics API configuration. Origins are comma separated.
func LoadAPI(db *gorm.DB) API {
	_ = LoadSettings(db)

	var origins []string
	for _, o := range strings.Split(GetSetting("api_origins", "API_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return API{
		Addr:           GetSetting("api_addr", "API_ADDR", ":8080"),
		AllowedOrigins: origins,
		RequestRate:    getFloatSetting("api_request_rate", "API_REQUEST_RATE", 10),
		RequestBurst:   getIntSetting("api_request_burst", "API_REQUEST_BURST", 20),
		Enabled:        getBoolSetting("enable_api", "ENABLE_API", true),
	}
}

// Package config loads courier's settings.
//
// Resolution order, later steps winning:
//
//  1. Built-in defaults (Default)
//  2. The TOML file, ~/.config/courier/config.toml unless a path is given
//  3. COURIER_* environment variables
//
// A missing config file is not an error. Durations in the file use Go syntax
// ("12s", "1m30s"). Example:
//
//	api_url = "https://rider-api.example.com"
//	events_url = "wss://rider-api.example.com/api/v1/rider/events"
//	poll_interval = "15s"
//	probe_interval = "12s"
//	probe_timeout = "5s"
//	request_timeout = "15s"
//	log_level = "debug"
//	log_format = "json"
//	log_file = "~/.local/share/courier/courier.log"
//	dev_otp_bypass = "1234"
//
// events_url is optional; without it the network monitor falls back to
// probing api_url. dev_otp_bypass is for development backends only.
package config

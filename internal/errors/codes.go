package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"
	ErrInvalidPeer     ErrorCode = "invalid_peer_address"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Hardware errors
	ErrGPIOInit   ErrorCode = "gpio_init_failed"
	ErrGPIOWrite  ErrorCode = "gpio_write_failed"
	ErrADCRead    ErrorCode = "adc_read_failed"
	ErrSensorRead ErrorCode = "sensor_read_failed"

	// Bus errors
	ErrBusConnect   ErrorCode = "bus_connect_failed"
	ErrBusSubscribe ErrorCode = "bus_subscribe_failed"

	// Application errors
	ErrInitApp    ErrorCode = "init_app_failed"
	ErrMainLoop   ErrorCode = "main_loop_failed"
	ErrFanOff     ErrorCode = "fan_off_failed"
	ErrPIDFile    ErrorCode = "pid_file_failed"
	ErrBadFrame   ErrorCode = "bad_frame"
	ErrPeerReply  ErrorCode = "peer_reply_failed"
	ErrTimeout    ErrorCode = "operation_timeout"
	ErrHTTPServer ErrorCode = "http_server_failed"

	// Metrics errors
	ErrInitMetrics    ErrorCode = "init_metrics_failed"
	ErrCollectMetrics ErrorCode = "collect_metrics_failed"
	ErrCloseMetrics   ErrorCode = "close_metrics_failed"
)

var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrUnavailable:     "Service unavailable",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidLogLevel: "Invalid log level",
	ErrInvalidPeer:     "Invalid peer address",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrGPIOInit:        "Failed to initialize GPIO line",
	ErrGPIOWrite:       "Failed to write GPIO line",
	ErrADCRead:         "Failed to read ADC channel",
	ErrSensorRead:      "Failed to read sensor",
	ErrBusConnect:      "Failed to connect to bus broker",
	ErrBusSubscribe:    "Failed to subscribe to bus topic",
	ErrInitApp:         "Failed to initialize application",
	ErrMainLoop:        "Error in main loop",
	ErrFanOff:          "Failed to switch fan off",
	ErrPIDFile:         "Failed to manage pid file",
	ErrBadFrame:        "Malformed frame",
	ErrPeerReply:       "Failed to reply to sensor node",
	ErrTimeout:         "Operation timed out",
	ErrHTTPServer:      "HTTP server failed",
	ErrInitMetrics:     "Failed to initialize metrics",
	ErrCollectMetrics:  "Failed to collect metrics data",
	ErrCloseMetrics:    "Failed to close metrics connection",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}

package domain

// ThroughputSample is a raw bandwidth measurement in bits per second.
type ThroughputSample struct {
	DownloadBandwidth float64
	UploadBandwidth   float64
}

// SystemInfo describes the host platform and the requesting client.
type SystemInfo struct {
	OperatingSystem string `json:"operating_system"`
	Browser         string `json:"browser"`
}

// ResponseRecord is the aggregated payload returned to a client. It is never
// mutated after construction.
type ResponseRecord struct {
	IPAddress         string     `json:"ip_address"`
	DownloadSpeed     float64    `json:"download_speed"`
	UploadSpeed       float64    `json:"upload_speed"`
	BatteryPercentage float64    `json:"battery_percentage"`
	SystemInfo        SystemInfo `json:"system_info"`
}

package models

import "time"

// Статусы автономного мониторинга локации
const (
	MonitorStatusSafe           = "SAFE"
	MonitorStatusMonitoring     = "MONITORING"
	MonitorStatusFloodDetected  = "FLOOD_DETECTED"
	MonitorStatusAlreadyPending = "ALREADY_PENDING"
)

// LocationMonitorState - состояние наблюдения за одной локацией
type LocationMonitorState struct {
	Location        string     `json:"location"`
	LastScanAt      time.Time  `json:"last_scan_at"`
	LastStatus      string     `json:"last_status"`
	LastReason      string     `json:"last_reason,omitempty"`
	PendingCrisisID *string    `json:"pending_crisis_id,omitempty"`
	LastWeather     *Weather   `json:"last_weather,omitempty"`
	LastNewsCount   int        `json:"last_news_count"`
	DetectedAt      *time.Time `json:"detected_at,omitempty"`
}

// Weather - текущая погода в локации
type Weather struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Rain1h      float64 `json:"rain_1h"`
	Description string  `json:"description,omitempty"`
}

// NewsItem - один заголовок из новостного источника
type NewsItem struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}
